package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/energeticacoop/photovoltaic-studies/pkg/storage"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) PutStudy(ctx context.Context, study types.Study) error {
	args := m.Called(ctx, study)
	return args.Error(0)
}

func (m *MockDatabase) GetStudy(ctx context.Context, id string) (types.Study, error) {
	args := m.Called(ctx, id)
	if len(args) > 0 {
		return args.Get(0).(types.Study), args.Error(1)
	}
	return types.Study{}, nil
}

func (m *MockDatabase) ListStudies(ctx context.Context, limit int) ([]types.StudySummary, error) {
	args := m.Called(ctx, limit)
	var list []types.StudySummary
	if v := args.Get(0); v != nil {
		list = v.([]types.StudySummary)
	}
	return list, args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	if len(args) > 0 {
		return args.Error(0)
	}
	return nil
}

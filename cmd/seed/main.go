package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/storage"
	"github.com/energeticacoop/photovoltaic-studies/pkg/study"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	st := study.Configured()
	s := storage.Configured()
	count := lflag.Int("count", 5, "Number of demo studies to seed")
	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding demo studies", slog.Int("count", *count))

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	for i := range *count {
		in := demoInput(rng, i)
		res, err := st.Run(ctx, in)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to run demo study", slog.Any("error", err))
			os.Exit(1)
		}
		studyDoc := types.Study{
			ID:        uuid.NewString(),
			Name:      in.Name,
			CreatedAt: time.Now().UTC().Add(-time.Duration(i) * time.Hour),
			CreatedBy: "seed@example.com",
			Version:   types.CurrentParamsVersion,
			Input:     in,
			Result:    res,
		}
		if err := s.PutStudy(ctx, studyDoc); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to save demo study", slog.Any("error", err))
			os.Exit(1)
		}
		log.Ctx(ctx).InfoContext(ctx, "seeded study", slog.String("id", studyDoc.ID), slog.String("name", in.Name))
	}
}

// demoInput builds a household with an evening-heavy load and a south-facing array whose size
// grows with n.
func demoInput(rng *rand.Rand, n int) types.StudyInput {
	const (
		HomeBaseKW  = 0.25
		EveningKW   = 0.9
		SolarPeakKW = 1.5
	)
	kwp := SolarPeakKW * float64(n+1)

	var consumption, production types.Curve
	for i := range consumption {
		hour := i % 24
		day := i / 24
		load := HomeBaseKW
		if hour >= 19 && hour < 23 {
			load += EveningKW
		} else if hour >= 7 && hour < 9 {
			load += EveningKW / 2
		}
		// Jitter
		consumption[i] = load * (0.8 + rng.Float64()*0.4)

		// longer days in summer
		daylight := 10 + 4*math.Sin(2*math.Pi*float64(day-80)/365)
		sunrise := 13 - daylight/2
		if h := float64(hour) + 0.5; h > sunrise && h < sunrise+daylight {
			production[i] = kwp * math.Sin(math.Pi*(h-sunrise)/daylight) * (0.6 + rng.Float64()*0.4)
		}
	}

	return types.StudyInput{
		Name:   fmt.Sprintf("Demo %d (%.1f kWp)", n+1, kwp),
		Year:   2023,
		Tariff: types.Tariff20TD,
		Consumption: types.ConsumptionInput{
			Source: types.ConsumptionSourceCurve,
			Curve:  &consumption,
		},
		Production: types.ProductionInput{Curve: production},
		Prices: types.PriceInput{
			Energy:       []float64{0.24, 0.16, 0.1},
			Compensation: 0.06,
		},
	}
}

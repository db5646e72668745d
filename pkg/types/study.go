package types

import (
	"time"

	"cloud.google.com/go/civil"
)

// Conventional consumption sources.
const (
	ConsumptionSourceCSV     = "csv"
	ConsumptionSourceDatadis = "datadis"
	ConsumptionSourceProfile = "profile"
	ConsumptionSourceCurve   = "curve"
)

// Study is a stored study run.
type Study struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	// CreatedBy is the email of the caller that ran the study, if authenticated.
	CreatedBy string `json:"createdBy,omitempty"`
	// Version is the params version the study was run with.
	Version int         `json:"version"`
	Input   StudyInput  `json:"input"`
	Result  StudyResult `json:"result"`
}

// Summary returns the listing form of s.
func (s Study) Summary() StudySummary {
	sum := StudySummary{
		ID:           s.ID,
		Name:         s.Name,
		CreatedAt:    s.CreatedAt,
		Tariff:       s.Input.Tariff,
		AnnualNoPV:   s.Result.Bills.NoPV.Sum() + s.Result.Bills.Fixed.Sum(),
		AnnualWithPV: s.Result.Bills.BeforeCredits.Sum(),
	}
	if len(s.Result.Flux.AnnualSavings) > 0 {
		sum.AnnualSavings = s.Result.Flux.AnnualSavings[0]
	}
	return sum
}

// StudySummary is the listing form of a Study.
type StudySummary struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	CreatedAt     time.Time   `json:"createdAt"`
	Tariff        TariffClass `json:"tariff"`
	AnnualNoPV    float64     `json:"annualNoPV"`
	AnnualWithPV  float64     `json:"annualWithPV"`
	AnnualSavings float64     `json:"annualSavings"`
}

// StudyInput is everything a study run needs.
type StudyInput struct {
	Name     string       `json:"name"`
	Year     int          `json:"year"`
	Tariff   TariffClass  `json:"tariff"`
	Holidays []civil.Date `json:"holidays"`

	// ParamsVersion is the Params version the caller filled in. Missing fields of later versions get defaults.
	ParamsVersion int    `json:"paramsVersion"`
	Params        Params `json:"params"`

	Consumption ConsumptionInput `json:"consumption"`
	Production  ProductionInput  `json:"production"`
	Recurring   *RecurringTables `json:"recurring,omitempty"`
	HeatPump    *HeatPumpInput   `json:"heatPump,omitempty"`
	EV          *EVInput         `json:"ev,omitempty"`
	Prices      PriceInput       `json:"prices"`
}

// WithoutRawData drops the raw consumption payloads, which are only needed while normalizing.
func (in StudyInput) WithoutRawData() StudyInput {
	in.Consumption.CSV = ""
	in.Consumption.Datadis = nil
	return in
}

// ConsumptionInput describes where the conventional (metered) consumption comes from.
type ConsumptionInput struct {
	// Source is one of csv, datadis, profile or curve
	Source string `json:"source"`

	// Dialect of the CSV body (csv source)
	Dialect string `json:"dialect,omitempty"`
	CSV     string `json:"csv,omitempty"`

	// Datadis API payload and the supply to pick from it
	Datadis *DatadisPayload `json:"datadis,omitempty"`
	CUPS    string          `json:"cups,omitempty"`

	// Average the readings by month, hour and weekday instead of using the last natural year as is.
	Averaged bool `json:"averaged,omitempty"`

	// Normalized reference profile scaled by AnnualKWh (profile source)
	Profile   *Curve  `json:"profile,omitempty"`
	AnnualKWh float64 `json:"annualKWh,omitempty"`

	// Already normalized curve (curve source)
	Curve *Curve `json:"curve,omitempty"`
}

// DatadisPayload is the parsed output of the Datadis supplies and consumption endpoints.
type DatadisPayload struct {
	Supplies     []DatadisSupply      `json:"supplies"`
	Consumptions []DatadisConsumption `json:"consumptions"`
}

// DatadisSupply is a supply point of the account.
type DatadisSupply struct {
	CUPS            string `json:"cups"`
	DistributorCode string `json:"distributorCode"`
	PointType       int    `json:"pointType"`
	ValidDateFrom   string `json:"validDateFrom"`
	ValidDateTo     string `json:"validDateTo"`
	Address         string `json:"address"`
	Distributor     string `json:"distributor"`
	PostalCode      string `json:"postalCode"`
	Province        string `json:"province"`
	Municipality    string `json:"municipality"`
	AuthorizedNIF   string `json:"authorizedNif,omitempty"`
}

// DatadisConsumption is one hourly row from the consumption endpoint. Date is y/m/d and Time is an
// hour-ending "HH:MM" label.
type DatadisConsumption struct {
	CUPS           string  `json:"cups"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	ConsumptionKWh float64 `json:"consumptionKWh"`
	ObtainMethod   string  `json:"obtainMethod"`
}

// ProductionInput is the hourly production of the installation, index 0 at Jan 1 00:00.
type ProductionInput struct {
	Curve Curve `json:"curve"`
	// Beta is the share of the installation assigned to this consumer. 0 means the whole installation.
	Beta float64 `json:"beta,omitempty"`
}

// RecurringTables describe a repeating consumption pattern. Every table has 24 rows (hours) and
// Daily has 1 column, Monthly 12, Weekly 7 (Monday first) and Seasonal 8 (season×{weekday, weekend}).
type RecurringTables struct {
	Daily    [][]float64 `json:"daily"`
	Monthly  [][]float64 `json:"monthly"`
	Weekly   [][]float64 `json:"weekly"`
	Seasonal [][]float64 `json:"seasonal"`
}

// HeatPumpInput selects a normalized heat pump profile and scales it by the annual consumption.
type HeatPumpInput struct {
	Profiles  map[string]Curve `json:"profiles"`
	Profile   string           `json:"profile"`
	AnnualKWh float64          `json:"annualKWh"`
}

// Electrical installation types of the EV charger.
const (
	InstallationSinglePhase = "single-phase"
	InstallationThreePhase  = "three-phase"
)

// ChargerPower is one normalized charger power step in kW.
type ChargerPower struct {
	SinglePhase float64 `json:"singlePhase"`
	ThreePhase  float64 `json:"threePhase"`
}

// EVInput configures the electric vehicle charging simulation.
type EVInput struct {
	// GridUsage[hour][season column] is true when the vehicle is plugged in.
	GridUsage [][]bool `json:"gridUsage"`
	// SeasonKm is the daily distance per season column.
	SeasonKm               []float64 `json:"seasonKm"`
	ConsumptionPer100KmKWh float64   `json:"consumptionPer100KmKWh"`
	BatteryKWh             float64   `json:"batteryKWh"`
	MaxChargerKW           float64   `json:"maxChargerKW"`
	// ContractedKW holds one contracted power per tariff period.
	ContractedKW []float64 `json:"contractedKW"`
	Installation string    `json:"installation"`
	Charger      string    `json:"charger"`
	// ChargerPowers holds the ascending normalized power steps of every charger model.
	ChargerPowers map[string][]ChargerPower `json:"chargerPowers"`
}

// PriceInput holds the price vector and fixed monthly costs.
type PriceInput struct {
	// Energy price per tariff period, period 1 first
	Energy []float64 `json:"energy"`
	// Compensation price of surplus energy
	Compensation float64 `json:"compensation"`
	// Monthly power term and regulated costs added to the bill before credits
	MonthlyPower     Monthly `json:"monthlyPower"`
	MonthlyRegulated Monthly `json:"monthlyRegulated"`
}

// StudyResult is the output of a study run.
type StudyResult struct {
	MissingHours int `json:"missingHours"`

	Conventional Curve `json:"conventional"`
	Recurring    Curve `json:"recurring"`
	HeatPump     Curve `json:"heatPump"`
	EVCharge     Curve `json:"evCharge"`

	Flows      Flows                `json:"flows"`
	Production ProductionStats      `json:"production"`
	Analysis   ConsumptionAnalysis  `json:"analysis"`
	Breakdowns map[string]Breakdown `json:"breakdowns"`
	EV         *EVResult            `json:"ev,omitempty"`
	Bills      Bills                `json:"bills"`
	Flux       FluxResult           `json:"flux"`
}

// Flows are the aggregate hourly energy flows of a consumer.
type Flows struct {
	Production      Curve `json:"production"`
	Total           Curve `json:"total"`
	SelfConsumption Curve `json:"selfConsumption"`
	Surplus         Curve `json:"surplus"`
	GridDemand      Curve `json:"gridDemand"`
}

// Breakdown aggregates a series by hour of day and by month.
type Breakdown struct {
	Hourly  [24]float64 `json:"hourly"`
	Monthly Monthly     `json:"monthly"`
	Annual  float64     `json:"annual"`
}

// ConsumptionAnalysis describes the shape of the conventional consumption.
type ConsumptionAnalysis struct {
	Yearly      float64         `json:"yearly"`
	Monthly     Monthly         `json:"monthly"`
	MonthlyPeak Monthly         `json:"monthlyPeak"`
	HourlyMeans [12][24]float64 `json:"hourlyMeans"`
	// WeekdayMeans[month][weekday] is the mean daily consumption, Sunday first.
	WeekdayMeans [12][7]float64 `json:"weekdayMeans"`
	// Exceeding[month][hour] counts hours above the month×hour mean times the surpassing factor.
	Exceeding [12][24]int `json:"exceeding"`
}

// ProductionStats summarizes the production curve.
type ProductionStats struct {
	Total float64 `json:"total"`
	// Negative production values are the inverter's night consumption.
	InverterConsumption float64 `json:"inverterConsumption"`
	InverterShare       float64 `json:"inverterShare"`
}

// EVResult is the output of the EV charging simulation.
type EVResult struct {
	Charge         Curve     `json:"charge"`
	Battery        Curve     `json:"battery"`
	UnmetKWh       float64   `json:"unmetKWh"`
	DepletionCount int       `json:"depletionCount"`
	IdleDays       int       `json:"idleDays"`
	MaxChargeKW    []float64 `json:"maxChargeKW"`
}

// Bills are the monthly energy bills under every compensation policy.
type Bills struct {
	Taxes              float64 `json:"taxes"`
	NoPV               Monthly `json:"noPV"`
	WithPV             Monthly `json:"withPV"`
	Surplus            Monthly `json:"surplus"`
	Compensation       Monthly `json:"compensation"`
	CompensableSurplus Monthly `json:"compensableSurplus"`
	Capped             Monthly `json:"capped"`
	Uncapped           Monthly `json:"uncapped"`
	Fixed              Monthly `json:"fixed"`
	BeforeCredits      Monthly `json:"beforeCredits"`
}

// FluxResult is the output of the credit queue simulation.
type FluxResult struct {
	Credits       Monthly   `json:"credits"`
	FinalYear     Monthly   `json:"finalYear"`
	AnnualSavings []float64 `json:"annualSavings"`
	Baseline      float64   `json:"baseline"`
	Generated     float64   `json:"generated"`
	Consumed      float64   `json:"consumed"`
	Expired       float64   `json:"expired"`
	Remaining     float64   `json:"remaining"`
}

package api

// ContractDTO represents a decoded contract in API responses.
type ContractDTO struct {
	Code           string   `json:"code"`
	Market         string   `json:"market"`
	Product        string   `json:"product"`
	Granularity    string   `json:"granularity"`
	PeriodID       string   `json:"period_id"`
	PeriodName     string   `json:"period_name"`
	DeliveryStart  string   `json:"delivery_start"`
	DeliveryEnd    string   `json:"delivery_end"`
	DeliveryMonths []string `json:"delivery_months"`
	BusinessKey    string   `json:"business_key"`
}

// MappingDTO is one sub-interval on which the contract trades under Label.
type MappingDTO struct {
	Label             string `json:"label"`
	Offset            int    `json:"offset"`
	ReferencePeriodID string `json:"reference_period_id"`
	Start             string `json:"start"`
	End               string `json:"end"`
}

type MappingsResponse struct {
	Contract   string       `json:"contract"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	WindowSize int          `json:"window_size"`
	Mappings   []MappingDTO `json:"mappings"`
}

type RecordMappingsResponse struct {
	MappingsResponse
	Inserted int    `json:"inserted"`
	User     string `json:"user"`
}

type ReferenceDTO struct {
	Date                  string `json:"date"`
	Granularity           string `json:"granularity"`
	NominalPeriodID       string `json:"nominal_period_id"`
	ReferencePeriodID     string `json:"reference_period_id"`
	InTransition          bool   `json:"in_transition"`
	RemainingBusinessDays int    `json:"remaining_business_days"`
	WindowSize            int    `json:"window_size"`
	NextChange            string `json:"next_change"`
}

// LabelDTO is a relative label resolved on a date. Contract is set when a market was given.
type LabelDTO struct {
	Label             string       `json:"label"`
	Date              string       `json:"date"`
	ReferencePeriodID string       `json:"reference_period_id"`
	PeriodID          string       `json:"period_id"`
	PeriodName        string       `json:"period_name"`
	Contract          *ContractDTO `json:"contract,omitempty"`
}

type PeriodDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Granularity string   `json:"granularity"`
	ParentID    string   `json:"parent_id,omitempty"`
	ChildIDs    []string `json:"child_ids,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

type HealthDTO struct {
	Status  string         `json:"status"`
	Markets []string       `json:"markets"`
	Windows map[string]int `json:"windows"`
	Periods int            `json:"periods"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

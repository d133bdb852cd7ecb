package dao

// Parameter represents a List filter
type Parameter struct {
	Name  string
	Value interface{}
}

// Parameter names understood by conversation stores
const (
	// ParameterFlowID filters by active flow id; use "" for idle conversations
	ParameterFlowID = "ActiveFlowID"
)

// NewParameter creates a filter parameter; multiple values match any of them
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

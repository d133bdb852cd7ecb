package criteria

import (
	"github.com/viant/turnflow/service/dao"
)

// FilterByFlow returns true when flowID satisfies every ActiveFlowID parameter
func FilterByFlow(flowID string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != dao.ParameterFlowID {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if flowID != actual {
				return false
			}
		case []string:
			matched := false
			for _, candidate := range actual {
				if flowID == candidate {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}

package model

import (
	"github.com/clinbench/clinbench/pkg/errors"
)

// ParamFloat coerces a grid- or config-supplied parameter value to float64.
// YAML and grid literals may arrive as int or float64.
func ParamFloat(name string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.NewValueError("SetParams", name+" must be numeric")
	}
}

// ParamInt coerces a grid- or config-supplied parameter value to int.
func ParamInt(name string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.NewValueError("SetParams", name+" must be an integer")
	}
}

// ParamBool coerces a grid- or config-supplied parameter value to bool.
func ParamBool(name string, value interface{}) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, errors.NewValueError("SetParams", name+" must be a bool")
	}
	return v, nil
}

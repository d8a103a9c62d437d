package control

import (
	"github.com/pkg/errors"

	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/utils"
)

type controllerType string

const (
	controllerPID                controllerType = "PID"
	controllerAngularPID         controllerType = "angularPID"
	controllerBangBang           controllerType = "bangBang"
	controllerTakeBackHalf       controllerType = "takeBackHalf"
	controllerGain               controllerType = "gain"
	controllerConstant           controllerType = "constant"
	controllerSum                controllerType = "sum"
	controllerCascade            controllerType = "cascade"
	controllerFeedforward        controllerType = "feedforward"
	controllerCombineFeedforward controllerType = "combineFeedforward"
)

// ControllerConfig describes a controller and, for composites, the controllers it is built from.
type ControllerConfig struct {
	Name      string             `json:"name"`
	Type      controllerType     `json:"type"`
	Attribute utils.AttributeMap `json:"attributes"`
	DependsOn []ControllerConfig `json:"depends_on,omitempty"`
}

// PIDConfig holds the attributes of PID and angularPID controllers.
type PIDConfig struct {
	Kp                float64  `json:"kp"`
	Ki                float64  `json:"ki"`
	Kd                float64  `json:"kd"`
	IntegrationRange  *float64 `json:"integration_range,omitempty"`
	OutputLimit       *float64 `json:"output_limit,omitempty"`
	ResetOnSignChange bool     `json:"reset_on_sign_change,omitempty"`
}

func (cfg *PIDConfig) options() []PIDOption {
	var opts []PIDOption
	if cfg.IntegrationRange != nil {
		opts = append(opts, WithIntegrationRange(*cfg.IntegrationRange))
	}
	if cfg.OutputLimit != nil {
		opts = append(opts, WithOutputLimit(*cfg.OutputLimit))
	}
	if cfg.ResetOnSignChange {
		opts = append(opts, WithSignChangeReset())
	}
	return opts
}

// FeedforwardConfig holds the attributes of feedforward models. Model is one of "motor", "arm"
// or "elevator".
type FeedforwardConfig struct {
	Model string  `json:"model"`
	Ks    float64 `json:"ks"`
	Kg    float64 `json:"kg"`
	Kv    float64 `json:"kv"`
	Ka    float64 `json:"ka"`
}

// Feedforward builds the configured model.
func (cfg *FeedforwardConfig) Feedforward() (Feedforward, SetpointMapper, error) {
	switch cfg.Model {
	case "", "motor":
		return MotorFeedforward{Ks: cfg.Ks, Kv: cfg.Kv, Ka: cfg.Ka}, VelocitySetpoint, nil
	case "arm":
		return ArmFeedforward{Ks: cfg.Ks, Kg: cfg.Kg, Kv: cfg.Kv, Ka: cfg.Ka}, PositionVelocitySetpoint, nil
	case "elevator":
		return ElevatorFeedforward{Ks: cfg.Ks, Kg: cfg.Kg, Kv: cfg.Kv, Ka: cfg.Ka}, PositionVelocitySetpoint, nil
	default:
		return nil, nil, errors.Errorf("unsupported feedforward model %q", cfg.Model)
	}
}

// BangBangConfig holds the attributes of a bangBang controller.
type BangBangConfig struct {
	Magnitude float64 `json:"magnitude"`
}

// TakeBackHalfConfig holds the attributes of a takeBackHalf controller.
type TakeBackHalfConfig struct {
	Kh float64 `json:"kh"`
}

// GainConfig holds the attributes of a gain controller.
type GainConfig struct {
	Gain float64 `json:"gain"`
}

// ConstantConfig holds the attributes of a constant controller.
type ConstantConfig struct {
	Value float64 `json:"constant_val"`
}

// SumConfig holds the attributes of a sum controller.
type SumConfig struct {
	SumString string `json:"sum_string"`
}

func (cfg *ControllerConfig) expectInputs(n int) error {
	if len(cfg.DependsOn) != n {
		return errors.Errorf("invalid number of inputs for %s controller %s expected %d got %d",
			cfg.Type, cfg.Name, n, len(cfg.DependsOn))
	}
	return nil
}

func (cfg *ControllerConfig) decode(to interface{}) error {
	if err := cfg.Attribute.Decode(to); err != nil {
		return errors.Wrapf(err, "%s controller %s", cfg.Type, cfg.Name)
	}
	return nil
}

// NewController builds the controller tree described by cfg.
func NewController(cfg ControllerConfig, logger logging.Logger) (Controller, error) {
	c, err := createController(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Debugw("created controller", "name", cfg.Name, "type", cfg.Type, "inputs", len(cfg.DependsOn))
	return c, nil
}

func createController(cfg ControllerConfig, logger logging.Logger) (Controller, error) {
	inputs := make([]Controller, 0, len(cfg.DependsOn))
	for _, dep := range cfg.DependsOn {
		c, err := createController(dep, logger)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, c)
	}

	switch cfg.Type {
	case controllerPID, controllerAngularPID:
		if err := cfg.expectInputs(0); err != nil {
			return nil, err
		}
		if !cfg.Attribute.Has("kp") && !cfg.Attribute.Has("ki") && !cfg.Attribute.Has("kd") {
			return nil, errors.Errorf("%s controller %s should have at least one of kp, ki or kd", cfg.Type, cfg.Name)
		}
		var pidCfg PIDConfig
		if err := cfg.decode(&pidCfg); err != nil {
			return nil, err
		}
		if cfg.Type == controllerAngularPID {
			return NewAngularPID(pidCfg.Kp, pidCfg.Ki, pidCfg.Kd, pidCfg.options()...), nil
		}
		return NewPID(pidCfg.Kp, pidCfg.Ki, pidCfg.Kd, pidCfg.options()...), nil
	case controllerBangBang:
		var bbCfg BangBangConfig
		if err := cfg.expectInputs(0); err != nil {
			return nil, err
		}
		if err := cfg.decode(&bbCfg); err != nil {
			return nil, err
		}
		return &BangBang{Magnitude: bbCfg.Magnitude}, nil
	case controllerTakeBackHalf:
		var tbhCfg TakeBackHalfConfig
		if err := cfg.expectInputs(0); err != nil {
			return nil, err
		}
		if err := cfg.decode(&tbhCfg); err != nil {
			return nil, err
		}
		return NewTakeBackHalf(tbhCfg.Kh), nil
	case controllerGain:
		if !cfg.Attribute.Has("gain") {
			return nil, errors.Errorf("gain controller %s doesn't have a gain field", cfg.Name)
		}
		var gainCfg GainConfig
		if err := cfg.expectInputs(0); err != nil {
			return nil, err
		}
		if err := cfg.decode(&gainCfg); err != nil {
			return nil, err
		}
		return &Gain{Gain: gainCfg.Gain}, nil
	case controllerConstant:
		if !cfg.Attribute.Has("constant_val") {
			return nil, errors.Errorf("constant controller %s doesn't have a constant_val field", cfg.Name)
		}
		var constCfg ConstantConfig
		if err := cfg.expectInputs(0); err != nil {
			return nil, err
		}
		if err := cfg.decode(&constCfg); err != nil {
			return nil, err
		}
		return &Constant{Value: constCfg.Value}, nil
	case controllerSum:
		if !cfg.Attribute.Has("sum_string") {
			return nil, errors.Errorf("sum controller %s doesn't have a sum_string", cfg.Name)
		}
		var sumCfg SumConfig
		if err := cfg.decode(&sumCfg); err != nil {
			return nil, err
		}
		s, err := NewSum(sumCfg.SumString, inputs...)
		if err != nil {
			return nil, errors.Wrapf(err, "sum controller %s", cfg.Name)
		}
		return s, nil
	case controllerCascade:
		if err := cfg.expectInputs(2); err != nil {
			return nil, err
		}
		return &Cascade{Primary: inputs[0], Secondary: inputs[1]}, nil
	case controllerFeedforward, controllerCombineFeedforward:
		if err := cfg.expectInputs(1); err != nil {
			return nil, err
		}
		var ffCfg FeedforwardConfig
		if err := cfg.decode(&ffCfg); err != nil {
			return nil, err
		}
		ff, mapper, err := ffCfg.Feedforward()
		if err != nil {
			return nil, errors.Wrapf(err, "%s controller %s", cfg.Type, cfg.Name)
		}
		if cfg.Type == controllerCombineFeedforward {
			return &CombineFeedforward{Feedback: inputs[0], Feedforward: ff}, nil
		}
		return &CascadeFeedforward{Primary: inputs[0], Feedforward: ff, Map: mapper}, nil
	}
	return nil, errors.Errorf("unsupported controller type %s", cfg.Type)
}

// Reconfigure applies new tuning to a controller built from a config of the same shape, without
// resetting its accumulated state. Only PID, angularPID and takeBackHalf controllers can be
// retuned.
func Reconfigure(c Controller, cfg ControllerConfig) error {
	switch ctrl := c.(type) {
	case *PID:
		return reconfigurePID(ctrl, cfg)
	case *AngularPID:
		return reconfigurePID(ctrl.PID, cfg)
	case *TakeBackHalf:
		var tbhCfg TakeBackHalfConfig
		if err := cfg.decode(&tbhCfg); err != nil {
			return err
		}
		ctrl.SetKh(tbhCfg.Kh)
		return nil
	default:
		return errors.Errorf("controller %s of type %T cannot be reconfigured", cfg.Name, c)
	}
}

func reconfigurePID(p *PID, cfg ControllerConfig) error {
	var pidCfg PIDConfig
	if err := cfg.decode(&pidCfg); err != nil {
		return err
	}
	p.SetGains(pidCfg.Kp, pidCfg.Ki, pidCfg.Kd)
	if pidCfg.IntegrationRange != nil {
		p.SetIntegrationRange(*pidCfg.IntegrationRange)
	} else {
		p.ClearIntegrationRange()
	}
	if pidCfg.OutputLimit != nil {
		p.SetOutputLimit(*pidCfg.OutputLimit)
	} else {
		p.ClearOutputLimit()
	}
	return nil
}

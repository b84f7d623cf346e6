package core

import "fmt"

// Config carries the training hyperparameters and loop bounds.
type Config struct {
	InputSize  int `json:"input_size"`
	HiddenSize int `json:"hidden_size"`

	LearningRate float64 `json:"learning_rate"`
	Gamma        float64 `json:"gamma"`
	RewardDecay  float64 `json:"reward_decay"`

	// Horizon bounds a single episode; an episode that never signals
	// termination is cut off after this many steps.
	Horizon int `json:"horizon"`

	Seed int64 `json:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		InputSize:    6400,
		HiddenSize:   200,
		LearningRate: 1e-3,
		Gamma:        0.99,
		RewardDecay:  0.99,
		Horizon:      50000,
		Seed:         0,
	}
}

func (c *Config) Validate() error {
	if c.InputSize <= 0 {
		return fmt.Errorf("input_size must be positive")
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be positive")
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive")
	}
	if c.Gamma <= 0 || c.Gamma >= 1 {
		return fmt.Errorf("gamma must be in (0,1)")
	}
	if c.RewardDecay <= 0 || c.RewardDecay >= 1 {
		return fmt.Errorf("reward_decay must be in (0,1)")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	return nil
}

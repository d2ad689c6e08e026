package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"famiglia/pkg/domain"
)

// scenario is the YAML description replayed by the run command.
type scenario struct {
	Godfather scenarioMember   `yaml:"godfather"`
	Members   []scenarioMember `yaml:"members"`
	Steps     []step           `yaml:"steps"`
}

type scenarioMember struct {
	ID   int  `yaml:"id"`
	Age  int  `yaml:"age"`
	Boss *int `yaml:"boss"`
}

func (m scenarioMember) member() domain.Member {
	out := domain.NewMember(domain.MemberID(m.ID), m.Age)
	if m.Boss != nil {
		out = out.ReportingTo(domain.MemberID(*m.Boss))
	}
	return out
}

// step holds exactly one action.
type step struct {
	Imprison  *int   `yaml:"imprison"`
	Release   *int   `yaml:"release"`
	BigBosses *int   `yaml:"big_bosses"`
	Compare   []int  `yaml:"compare"`
	Export    string `yaml:"export"`
}

var errInvalidStep = errors.New("invalid step")

func (s step) validate() error {
	set := 0
	for _, ok := range []bool{s.Imprison != nil, s.Release != nil, s.BigBosses != nil, s.Compare != nil, s.Export != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: expected exactly one action, got %d", errInvalidStep, set)
	}
	if s.Compare != nil && len(s.Compare) != 2 {
		return fmt.Errorf("%w: compare takes two member ids", errInvalidStep)
	}
	return nil
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Godfather.Boss != nil {
		return scenario{}, errors.New("parse scenario: godfather cannot have a boss")
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return scenario{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return sc, nil
}

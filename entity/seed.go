package entity

import (
	_ "embed"
	"fmt"

	"github.com/tfkr-ae/showcase/domain"
	"gopkg.in/yaml.v3"
)

//go:embed seed/projects.yaml
var builtinProjectsYAML []byte

// BuiltinProjects returns the built-in example projects in seed order.
func BuiltinProjects() ([]domain.Project, error) {
	return ParseProjects(builtinProjectsYAML)
}

// ParseProjects decodes a YAML list of projects.
func ParseProjects(data []byte) ([]domain.Project, error) {
	var projects []domain.Project
	if err := yaml.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parsing seed projects: %w", err)
	}
	for i, project := range projects {
		if project.Title == "" {
			return nil, fmt.Errorf("seed project %d has no title", i+1)
		}
	}
	return projects, nil
}

// Package compose renders the local container services (Postgres and Redis)
// the journal API depends on.
package compose

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"reflective-journal/devstart/internal/config"
)

// File is the subset of the compose file format devstart emits.
type File struct {
	Services map[string]Service        `yaml:"services"`
	Volumes  map[string]map[string]any `yaml:"volumes,omitempty"`
}

type Service struct {
	Image         string            `yaml:"image"`
	ContainerName string            `yaml:"container_name,omitempty"`
	Environment   map[string]string `yaml:"environment,omitempty"`
	Ports         []string          `yaml:"ports,omitempty"`
	Volumes       []string          `yaml:"volumes,omitempty"`
	Healthcheck   *Healthcheck      `yaml:"healthcheck,omitempty"`
}

type Healthcheck struct {
	Test     []string `yaml:"test"`
	Interval string   `yaml:"interval"`
	Timeout  string   `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
}

// Build returns the two service definitions for cfg. database names the
// database created inside the postgres container.
func Build(cfg config.ComposeConfig, database string) *File {
	pg := cfg.Postgres
	rd := cfg.Redis

	return &File{
		Services: map[string]Service{
			"postgres": {
				Image:         pg.Image,
				ContainerName: "journal-postgres",
				Environment: map[string]string{
					"POSTGRES_USER":     cfg.User,
					"POSTGRES_PASSWORD": cfg.Password,
					"POSTGRES_DB":       database,
				},
				Ports:   []string{portMapping(pg.Port, 5432)},
				Volumes: []string{"postgres_data:/var/lib/postgresql/data"},
				Healthcheck: &Healthcheck{
					Test:     []string{"CMD-SHELL", "pg_isready -U " + cfg.User},
					Interval: pg.Interval.String(),
					Timeout:  pg.Timeout.String(),
					Retries:  pg.Retries,
				},
			},
			"redis": {
				Image:         rd.Image,
				ContainerName: "journal-redis",
				Ports:         []string{portMapping(rd.Port, 6379)},
				Healthcheck: &Healthcheck{
					Test:     []string{"CMD", "redis-cli", "ping"},
					Interval: rd.Interval.String(),
					Timeout:  rd.Timeout.String(),
					Retries:  rd.Retries,
				},
			},
		},
		Volumes: map[string]map[string]any{
			"postgres_data": {},
		},
	}
}

func portMapping(host, container int) string {
	return strconv.Itoa(host) + ":" + strconv.Itoa(container)
}

// Encode writes f as YAML with two-space indentation.
func (f *File) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding compose file: %w", err)
	}
	return enc.Close()
}

// WriteFile renders f to path.
func (f *File) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Parse decodes a compose file previously written by Encode.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding compose file: %w", err)
	}
	return &f, nil
}

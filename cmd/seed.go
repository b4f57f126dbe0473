package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/services"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Jobs []models.JobPosting `yaml:"jobs"`
}

func loadSeed(r io.Reader) ([]models.JobPosting, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed seedFile
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty seed file")
		}
		return nil, err
	}
	for i, job := range seed.Jobs {
		if strings.TrimSpace(job.Title) == "" {
			return nil, fmt.Errorf("job %d: title is required", i+1)
		}
	}
	return seed.Jobs, nil
}

func seedDemoJobs(ctx context.Context, svc *services.Service, jobs []models.JobPosting) (int, error) {
	for i, job := range jobs {
		job.ID = 0
		if _, err := svc.SaveDemoJob(ctx, job); err != nil {
			return i, err
		}
	}
	return len(jobs), nil
}

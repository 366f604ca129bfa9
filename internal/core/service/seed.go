package service

import (
	"context"
)

// seedTodos is the sample data loaded into an empty store.
var seedTodos = []CreateTodoRequest{
	{Title: "Learn NestJS", Description: strPtr("Study NestJS framework and its features")},
	{Title: "Set up Prometheus", Description: strPtr("Configure Prometheus for metrics collection")},
	{Title: "Implement Golden Signals", Description: strPtr("Add Error, Traffic, Saturation, and Latency metrics")},
	{Title: "Create Grafana Dashboard", Description: strPtr("Build dashboard to visualize SRE metrics")},
	{Title: "Write Documentation", Description: strPtr("Document the monitoring setup"), Completed: boolPtr(true)},
}

// Seed loads the sample todos if the store is empty. It returns the number
// of todos created.
func (s *TodoService) Seed(ctx context.Context) (int, error) {
	done := s.track("count")
	n, err := s.repo.Count(ctx)
	done()
	if err != nil {
		return 0, storageError(err)
	}
	if n > 0 {
		s.logger.Info("seed skipped, store not empty", "count", n)
		return 0, nil
	}

	for i := range seedTodos {
		if _, err := s.Create(ctx, &seedTodos[i]); err != nil {
			return i, err
		}
	}
	s.logger.Info("seeded todos", "count", len(seedTodos))
	return len(seedTodos), nil
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

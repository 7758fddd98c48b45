package api

import (
	"context"
	"fmt"

	"manualstudio/internal/jobs"
	"manualstudio/internal/services"
)

// GetJob fetches one job by id.
func (s *JobService) GetJob(ctx context.Context, id string) (*jobs.Job, error) {
	return s.store.GetByID(ctx, id)
}

// ListRequest shapes a job listing. Zero values mean no status filter,
// no text filter, first page, default page size, newest first.
type ListRequest struct {
	Status   string
	Text     string
	Page     int
	PageSize int
	SortAsc  bool
}

// JobPage is one page of listing results.
type JobPage struct {
	Jobs     []*jobs.Job
	Total    int
	Page     int
	PageSize int
}

// ListJobs returns a filtered, paginated job listing. The status filter
// and text search AND-compose.
func (s *JobService) ListJobs(ctx context.Context, req ListRequest) (*JobPage, error) {
	var status jobs.Status
	if req.Status != "" {
		parsed, ok := jobs.ParseStatus(req.Status)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "api", "list",
				fmt.Sprintf("unknown status %q", req.Status), nil)
		}
		status = parsed
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	list, total, err := s.store.List(ctx, jobs.ListQuery{
		Status:   status,
		Text:     req.Text,
		Page:     page,
		PageSize: pageSize,
		SortAsc:  req.SortAsc,
	})
	if err != nil {
		return nil, err
	}
	return &JobPage{Jobs: list, Total: total, Page: page, PageSize: pageSize}, nil
}

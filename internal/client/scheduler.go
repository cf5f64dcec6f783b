package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/me/schedview/pkg/model"
)

// API paths of the scheduler service.
const (
	PathStatus          = "/status"
	PathProcess         = "/process"
	PathSchedule        = "/schedule"
	PathSuspend         = "/suspend/"
	PathResume          = "/resume/"
	PathProcessorStatus = "/processor-status"
	PathReset           = "/reset"
)

// FetchStatus fetches the full scheduler snapshot.
func (c *Client) FetchStatus(ctx context.Context) (*Reply[model.SystemState], error) {
	return call[model.SystemState](ctx, c, http.MethodGet, PathStatus, nil)
}

// SubmitProcess creates a process and returns it with its server-assigned pid.
// Input the client can reject is rejected without a round trip.
func (c *Client) SubmitProcess(ctx context.Context, info model.ProcessInfo) (*Reply[model.Process], error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return call[model.Process](ctx, c, http.MethodPost, PathProcess, info)
}

// StepSchedule advances the scheduler by one step and returns the buckets
// the server reported.
func (c *Client) StepSchedule(ctx context.Context) (*Reply[model.PartialQueue], error) {
	return call[model.PartialQueue](ctx, c, http.MethodPost, PathSchedule, nil)
}

// SuspendProcess suspends the process with the given pid.
func (c *Client) SuspendProcess(ctx context.Context, pid int) (*Reply[struct{}], error) {
	return call[struct{}](ctx, c, http.MethodPost, fmt.Sprintf("%s%d", PathSuspend, pid), nil)
}

// ResumeProcess resumes a suspended process.
func (c *Client) ResumeProcess(ctx context.Context, pid int) (*Reply[struct{}], error) {
	return call[struct{}](ctx, c, http.MethodPost, fmt.Sprintf("%s%d", PathResume, pid), nil)
}

// FetchProcessorStatus fetches the processor slots.
func (c *Client) FetchProcessorStatus(ctx context.Context) (*Reply[model.ProcessorAssignment], error) {
	r, err := call[model.ProcessorStatusData](ctx, c, http.MethodGet, PathProcessorStatus, nil)
	if err != nil {
		return nil, err
	}
	return &Reply[model.ProcessorAssignment]{Message: r.Message, Data: r.Data.Processors}, nil
}

// ResetSystem clears all scheduler state on the server.
func (c *Client) ResetSystem(ctx context.Context) (*Reply[struct{}], error) {
	return call[struct{}](ctx, c, http.MethodPost, PathReset, nil)
}

package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskgate.org/internal/ids"
	"taskgate.org/internal/policy"
)

// TaskInput is the payload for creating a task.
type TaskInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	Category     string     `json:"category"`
	AssignedToID string     `json:"assigned_to_id"`
	DueDate      *time.Time `json:"due_date"`
}

// TaskPatch updates the fields that are set. An empty AssignedToID clears the
// assignment.
type TaskPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	Category     *string    `json:"category"`
	AssignedToID *string    `json:"assigned_to_id"`
	DueDate      *time.Time `json:"due_date"`
}

// TaskQuery filters ListTasks.
type TaskQuery struct {
	Status   string
	Category string
}

// CreateTask creates a task in the principal's organization, created by the
// principal.
func (s *Service) CreateTask(ctx context.Context, pr policy.Principal, in TaskInput) (Task, error) {
	if err := s.policy.AuthorizeCreate(pr, policy.ResourceTask, pr.OrganizationID); err != nil {
		return Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return Task{}, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	status, err := ParseTaskStatus(in.Status)
	if err != nil {
		return Task{}, err
	}
	priority, err := ParseTaskPriority(in.Priority)
	if err != nil {
		return Task{}, err
	}
	assignee := strings.TrimSpace(in.AssignedToID)
	if err := s.checkAssignee(ctx, pr.OrganizationID, assignee); err != nil {
		return Task{}, err
	}

	now := s.timestamp()
	t := Task{
		ID:             ids.New(),
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		Status:         status,
		Priority:       priority,
		Category:       category,
		AssignedToID:   assignee,
		CreatedByID:    pr.ID,
		OrganizationID: pr.OrganizationID,
		DueDate:        in.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, pr, AuditCreate, policy.ResourceTask, t.ID, "Created task: "+t.Title)
	return t, nil
}

// ListTasks returns the tasks of the principal's organization the principal
// may see. Viewers only get tasks assigned to or created by them.
func (s *Service) ListTasks(ctx context.Context, pr policy.Principal, q TaskQuery) ([]Task, error) {
	if err := s.policy.Authorize(pr, policy.ResourceTask, policy.ActionRead); err != nil {
		return nil, err
	}
	if pr.OrganizationID == "" {
		return []Task{}, nil
	}
	f := TaskFilter{OrganizationID: pr.OrganizationID, Category: strings.TrimSpace(q.Category)}
	if strings.TrimSpace(q.Status) != "" {
		status, err := ParseTaskStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f.Status = status
	}
	if pr.Role == policy.RoleViewer {
		f.VisibleTo = pr.ID
	}
	tasks, err := s.store.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if policy.ViewerCanSeeInstance(pr.Role, t.AssignedToID, t.CreatedByID, pr.ID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTask returns one task if the principal may see it.
func (s *Service) GetTask(ctx context.Context, pr policy.Principal, id string) (Task, error) {
	if err := s.policy.Authorize(pr, policy.ResourceTask, policy.ActionRead); err != nil {
		return Task{}, err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err := s.policy.AuthorizeAccess(pr, policy.ResourceTask, t.Descriptor()); err != nil {
		return Task{}, err
	}
	if err := s.policy.AuthorizeVisible(pr, policy.ResourceTask, t.AssignedToID, t.CreatedByID); err != nil {
		return Task{}, err
	}
	return t, nil
}

// UpdateTask applies patch to a task the principal may modify. The creator
// is the task's owner.
func (s *Service) UpdateTask(ctx context.Context, pr policy.Principal, id string, patch TaskPatch) (Task, error) {
	if err := s.policy.Authorize(pr, policy.ResourceTask, policy.ActionUpdate); err != nil {
		return Task{}, err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err := s.policy.AuthorizeModify(pr, policy.ResourceTask, policy.ActionUpdate, t.Descriptor()); err != nil {
		return Task{}, err
	}

	if v := trimmed(patch.Title); v != nil {
		if *v == "" {
			return Task{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		t.Title = *v
	}
	if v := trimmed(patch.Description); v != nil {
		t.Description = *v
	}
	if v := trimmed(patch.Category); v != nil {
		if *v == "" {
			return Task{}, fmt.Errorf("%w: category must not be empty", ErrInvalidInput)
		}
		t.Category = *v
	}
	if patch.Status != nil {
		if strings.TrimSpace(*patch.Status) == "" {
			return Task{}, fmt.Errorf("%w: status must not be empty", ErrInvalidInput)
		}
		if t.Status, err = ParseTaskStatus(*patch.Status); err != nil {
			return Task{}, err
		}
	}
	if patch.Priority != nil {
		if strings.TrimSpace(*patch.Priority) == "" {
			return Task{}, fmt.Errorf("%w: priority must not be empty", ErrInvalidInput)
		}
		if t.Priority, err = ParseTaskPriority(*patch.Priority); err != nil {
			return Task{}, err
		}
	}
	if v := trimmed(patch.AssignedToID); v != nil {
		if err := s.checkAssignee(ctx, t.OrganizationID, *v); err != nil {
			return Task{}, err
		}
		t.AssignedToID = *v
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		t.DueDate = &due
	}
	t.UpdatedAt = s.timestamp()

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, pr, AuditUpdate, policy.ResourceTask, t.ID, "Updated task: "+t.Title)
	return t, nil
}

// UpdateTaskStatus moves a task to status.
func (s *Service) UpdateTaskStatus(ctx context.Context, pr policy.Principal, id, status string) (Task, error) {
	if strings.TrimSpace(status) == "" {
		return Task{}, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	return s.UpdateTask(ctx, pr, id, TaskPatch{Status: &status})
}

// DeleteTask removes a task the principal may modify.
func (s *Service) DeleteTask(ctx context.Context, pr policy.Principal, id string) error {
	if err := s.policy.Authorize(pr, policy.ResourceTask, policy.ActionDelete); err != nil {
		return err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeModify(pr, policy.ResourceTask, policy.ActionDelete, t.Descriptor()); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, pr, AuditDelete, policy.ResourceTask, id, "Deleted task: "+t.Title)
	return nil
}

// checkAssignee requires a non-empty assignee to be a member of orgID.
func (s *Service) checkAssignee(ctx context.Context, orgID, userID string) error {
	if userID == "" {
		return nil
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: assignee %s does not exist", ErrInvalidInput, userID)
		}
		return err
	}
	if u.OrganizationID != orgID {
		return fmt.Errorf("%w: assignee must belong to the task's organization", ErrInvalidInput)
	}
	return nil
}

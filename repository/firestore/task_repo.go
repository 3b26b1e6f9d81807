package firestore

import (
	"context"
	"time"

	cf "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
)

type taskRepo struct {
	s *Store
}

// taskDoc is the wire shape of a task document. Category is stored as
// its display string; createdAt/updatedAt are server-assigned.
type taskDoc struct {
	Description string       `firestore:"description"`
	Category    string       `firestore:"category"`
	DueDate     *time.Time   `firestore:"dueDate"`
	Completed   bool         `firestore:"completed"`
	Subtasks    []subtaskDoc `firestore:"subtasks"`
	CreatedAt   time.Time    `firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time    `firestore:"updatedAt,serverTimestamp"`
}

type subtaskDoc struct {
	ID          string `firestore:"id"`
	Description string `firestore:"description"`
	Completed   bool   `firestore:"completed"`
}

func toDoc(task *domain.Task) taskDoc {
	doc := taskDoc{
		Description: task.Description,
		Category:    task.Category.String(),
		DueDate:     task.DueDate,
		Completed:   task.Completed,
		Subtasks:    make([]subtaskDoc, 0, len(task.Subtasks)),
	}
	for _, st := range task.Subtasks {
		doc.Subtasks = append(doc.Subtasks, subtaskDoc(st))
	}
	return doc
}

func fromSnapshot(snap *cf.DocumentSnapshot) (domain.Task, error) {
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Task{}, err
	}
	category, err := domain.ParseCategory(doc.Category)
	if err != nil {
		return domain.Task{}, err
	}
	task := domain.Task{
		ID:          snap.Ref.ID,
		Description: doc.Description,
		Category:    category,
		DueDate:     doc.DueDate,
		Completed:   doc.Completed,
		Subtasks:    make([]domain.Subtask, 0, len(doc.Subtasks)),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, st := range doc.Subtasks {
		task.Subtasks = append(task.Subtasks, domain.Subtask(st))
	}
	return task, nil
}

func (r taskRepo) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	snap, err := r.s.tasksCol(userID).Doc(id).Get(ctx)
	if err != nil {
		return nil, classify(err, domain.ErrTaskNotFound)
	}
	task, err := fromSnapshot(snap)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "malformed task document", err)
	}
	return &task, nil
}

func (r taskRepo) Create(ctx context.Context, userID string, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	ref := r.s.tasksCol(userID).NewDoc()
	if _, err := ref.Set(ctx, toDoc(task)); err != nil {
		return nil, classify(err, nil)
	}

	// Read back to resolve the server-assigned timestamps. If the read
	// is rejected the create itself still succeeded, so return the
	// record with the backend id and the client's provisional times.
	created := *task
	created.ID = ref.ID
	created.Pending = false
	if snap, err := ref.Get(ctx); err == nil {
		if confirmed, convErr := fromSnapshot(snap); convErr == nil {
			created = confirmed
		}
	}
	return &created, nil
}

func (r taskRepo) Patch(ctx context.Context, userID, id string, patch repository.TaskPatch) error {
	if patch.Empty() {
		return nil
	}

	updates := make([]cf.Update, 0, 6)
	if patch.Description != nil {
		updates = append(updates, cf.Update{Path: "description", Value: *patch.Description})
	}
	if patch.Category != nil {
		updates = append(updates, cf.Update{Path: "category", Value: patch.Category.String()})
	}
	if patch.DueDate != nil {
		updates = append(updates, cf.Update{Path: "dueDate", Value: *patch.DueDate})
	} else if patch.ClearDueDate {
		// An omitted due date must clear the stored one, not keep it.
		updates = append(updates, cf.Update{Path: "dueDate", Value: cf.Delete})
	}
	if patch.Completed != nil {
		updates = append(updates, cf.Update{Path: "completed", Value: *patch.Completed})
	}
	if patch.Subtasks != nil {
		subs := make([]subtaskDoc, 0, len(*patch.Subtasks))
		for _, st := range *patch.Subtasks {
			subs = append(subs, subtaskDoc(st))
		}
		updates = append(updates, cf.Update{Path: "subtasks", Value: subs})
	}
	updates = append(updates, cf.Update{Path: "updatedAt", Value: cf.ServerTimestamp})

	if _, err := r.s.tasksCol(userID).Doc(id).Update(ctx, updates); err != nil {
		return classify(err, domain.ErrTaskNotFound)
	}
	return nil
}

func (r taskRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.s.tasksCol(userID).Doc(id).Delete(ctx); err != nil {
		return classify(err, domain.ErrTaskNotFound)
	}
	return nil
}

// Watch streams full-collection snapshots until ctx is cancelled or a
// terminal error is emitted. Documents that fail to decode are dropped
// from the snapshot rather than failing the stream; write-time
// validation makes them unrepresentable in practice.
func (r taskRepo) Watch(ctx context.Context, userID string) (<-chan repository.Snapshot, error) {
	it := r.s.tasksCol(userID).Snapshots(ctx)
	ch := make(chan repository.Snapshot, 8)

	go func() {
		defer close(ch)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				ch <- repository.Snapshot{Err: classify(err, nil)}
				return
			}

			docs, err := qs.Documents.GetAll()
			if err != nil {
				ch <- repository.Snapshot{Err: classify(err, nil)}
				return
			}

			tasks := make([]domain.Task, 0, len(docs))
			for _, d := range docs {
				task, convErr := fromSnapshot(d)
				if convErr != nil {
					continue
				}
				tasks = append(tasks, task)
			}

			select {
			case ch <- repository.Snapshot{Tasks: tasks}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/mapper"
	"ai-discovery-be/internal/model"
	"ai-discovery-be/internal/repository/contract"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ErrUnsupportedSpecification is returned for specifications the store cannot evaluate.
var ErrUnsupportedSpecification = errors.New("memory store: unsupported specification")

// Store keeps discovery records in process memory. It stands in for postgres
// when no DSN is configured and backs the service tests.
type Store struct {
	mu   sync.Mutex
	data *storeData
}

type storeData struct {
	sessions map[uuid.UUID]model.DiscoverySession
	messages []model.DiscoveryMessage
	ideas    map[uuid.UUID][]model.DiscoveryIdea
}

func newStoreData() *storeData {
	return &storeData{
		sessions: make(map[uuid.UUID]model.DiscoverySession),
		ideas:    make(map[uuid.UUID][]model.DiscoveryIdea),
	}
}

// clone copies the record containers. Model values are replaced, never
// mutated in place, so sharing their byte slices is safe.
func (d *storeData) clone() *storeData {
	c := &storeData{
		sessions: make(map[uuid.UUID]model.DiscoverySession, len(d.sessions)),
		messages: append([]model.DiscoveryMessage(nil), d.messages...),
		ideas:    make(map[uuid.UUID][]model.DiscoveryIdea, len(d.ideas)),
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.ideas {
		c.ideas[k] = append([]model.DiscoveryIdea(nil), v...)
	}
	return c
}

func NewStore() *Store {
	return &Store{data: newStoreData()}
}

var _ unitofwork.RepositoryFactory = (*Store)(nil)

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: s, mapper: mapper.NewDiscoveryMapper()}
}

// unitOfWork holds the store lock between Begin and Commit/Rollback, so
// transactions are serialized. Rollback restores the snapshot taken at Begin.
type unitOfWork struct {
	store  *Store
	mapper *mapper.DiscoveryMapper
	inTx   bool
	undo   *storeData
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.mu.Lock()
	u.undo = u.store.data.clone()
	u.inTx = true
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.undo = nil
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.data = u.undo
	u.inTx = false
	u.undo = nil
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) with(fn func(d *storeData) error) error {
	if !u.inTx {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
	}
	return fn(u.store.data)
}

func (u *unitOfWork) DiscoverySessionRepository() contract.DiscoverySessionRepository {
	return &sessionRepository{uow: u}
}

func (u *unitOfWork) DiscoveryMessageRepository() contract.DiscoveryMessageRepository {
	return &messageRepository{uow: u}
}

func (u *unitOfWork) DiscoveryIdeaRepository() contract.DiscoveryIdeaRepository {
	return &ideaRepository{uow: u}
}

// Sessions

type sessionRepository struct {
	uow *unitOfWork
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.DiscoverySession) error {
	m := r.uow.mapper.SessionToModel(session)
	now := time.Now()
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	err := r.uow.with(func(d *storeData) error {
		if _, exists := d.sessions[m.Id]; exists {
			return fmt.Errorf("discovery session %s already exists", m.Id)
		}
		d.sessions[m.Id] = *m
		return nil
	})
	if err != nil {
		return err
	}
	*session = *r.uow.mapper.SessionToEntity(m)
	return nil
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.DiscoverySession) error {
	m := r.uow.mapper.SessionToModel(session)
	m.UpdatedAt = time.Now()
	if err := r.uow.with(func(d *storeData) error {
		d.sessions[m.Id] = *m
		return nil
	}); err != nil {
		return err
	}
	*session = *r.uow.mapper.SessionToEntity(m)
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.uow.with(func(d *storeData) error {
		delete(d.sessions, id)
		return nil
	})
}

func (r *sessionRepository) find(specs []specification.Specification) ([]model.DiscoverySession, error) {
	var out []model.DiscoverySession
	err := r.uow.with(func(d *storeData) error {
		for _, m := range d.sessions {
			ok, err := matchSession(&m, specs)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// map iteration order is random; default to creation order
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	for _, spec := range specs {
		if o, ok := spec.(specification.OrderBy); ok {
			var less func(a, b *model.DiscoverySession) bool
			switch o.Field {
			case "created_at":
				less = func(a, b *model.DiscoverySession) bool { return a.CreatedAt.Before(b.CreatedAt) }
			case "updated_at":
				less = func(a, b *model.DiscoverySession) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
			default:
				return nil, fmt.Errorf("%w: order by %s", ErrUnsupportedSpecification, o.Field)
			}
			sort.SliceStable(out, func(i, j int) bool {
				if o.Desc {
					return less(&out[j], &out[i])
				}
				return less(&out[i], &out[j])
			})
		}
	}
	return paginate(out, specs), nil
}

func matchSession(m *model.DiscoverySession, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if m.Id != s.ID {
				return false, nil
			}
		case specification.UserOwnedBy:
			if m.UserId != s.UserID {
				return false, nil
			}
		case specification.ByStatus:
			if m.Status != s.Status {
				return false, nil
			}
		case specification.OrderBy, specification.Pagination:
		default:
			return false, fmt.Errorf("%w: %T", ErrUnsupportedSpecification, spec)
		}
	}
	return true, nil
}

func (r *sessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiscoverySession, error) {
	found, err := r.find(specs)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return r.uow.mapper.SessionToEntity(&found[0]), nil
}

func (r *sessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoverySession, error) {
	found, err := r.find(specs)
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.DiscoverySession, len(found))
	for i := range found {
		entities[i] = r.uow.mapper.SessionToEntity(&found[i])
	}
	return entities, nil
}

// Messages

type messageRepository struct {
	uow *unitOfWork
}

func (r *messageRepository) Create(ctx context.Context, message *entity.DiscoveryMessage) error {
	m := r.uow.mapper.MessageToModel(message)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if err := r.uow.with(func(d *storeData) error {
		d.messages = append(d.messages, *m)
		return nil
	}); err != nil {
		return err
	}
	*message = *r.uow.mapper.MessageToEntity(m)
	return nil
}

func (r *messageRepository) find(specs []specification.Specification) ([]model.DiscoveryMessage, error) {
	var out []model.DiscoveryMessage
	err := r.uow.with(func(d *storeData) error {
	next:
		for _, m := range d.messages {
			for _, spec := range specs {
				switch s := spec.(type) {
				case specification.BySessionID:
					if m.SessionId != s.SessionID {
						continue next
					}
				case specification.ByID:
					if m.Id != s.ID {
						continue next
					}
				case specification.OrderBy, specification.Pagination:
				default:
					return fmt.Errorf("%w: %T", ErrUnsupportedSpecification, spec)
				}
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, spec := range specs {
		if o, ok := spec.(specification.OrderBy); ok {
			if o.Field != "created_at" {
				return nil, fmt.Errorf("%w: order by %s", ErrUnsupportedSpecification, o.Field)
			}
			sort.SliceStable(out, func(i, j int) bool {
				if o.Desc {
					return out[j].CreatedAt.Before(out[i].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		}
	}
	return paginate(out, specs), nil
}

func (r *messageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoveryMessage, error) {
	found, err := r.find(specs)
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.DiscoveryMessage, len(found))
	for i := range found {
		entities[i] = r.uow.mapper.MessageToEntity(&found[i])
	}
	return entities, nil
}

func (r *messageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	found, err := r.find(specs)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

func (r *messageRepository) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.uow.with(func(d *storeData) error {
		kept := d.messages[:0:0]
		for _, m := range d.messages {
			if m.SessionId != sessionId {
				kept = append(kept, m)
			}
		}
		d.messages = kept
		return nil
	})
}

// Ideas

type ideaRepository struct {
	uow *unitOfWork
}

func (r *ideaRepository) ReplaceForSession(ctx context.Context, sessionId uuid.UUID, ideas []*entity.DiscoveryIdea) error {
	models := make([]model.DiscoveryIdea, len(ideas))
	for i, idea := range ideas {
		models[i] = *r.uow.mapper.IdeaToModel(idea)
		models[i].SessionId = sessionId
	}
	return r.uow.with(func(d *storeData) error {
		if len(models) == 0 {
			delete(d.ideas, sessionId)
			return nil
		}
		d.ideas[sessionId] = models
		return nil
	})
}

func (r *ideaRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoveryIdea, error) {
	var out []model.DiscoveryIdea
	err := r.uow.with(func(d *storeData) error {
		var sessionID *uuid.UUID
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.BySessionID:
				id := s.SessionID
				sessionID = &id
			case specification.OrderBy:
				if s.Field != "position" {
					return fmt.Errorf("%w: order by %s", ErrUnsupportedSpecification, s.Field)
				}
			case specification.Pagination:
			default:
				return fmt.Errorf("%w: %T", ErrUnsupportedSpecification, spec)
			}
		}
		if sessionID != nil {
			out = append(out, d.ideas[*sessionID]...)
			return nil
		}
		for _, list := range d.ideas {
			out = append(out, list...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	for _, spec := range specs {
		if o, ok := spec.(specification.OrderBy); ok && o.Desc {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	out = paginate(out, specs)

	entities := make([]*entity.DiscoveryIdea, len(out))
	for i := range out {
		entities[i] = r.uow.mapper.IdeaToEntity(&out[i])
	}
	return entities, nil
}

func (r *ideaRepository) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.uow.with(func(d *storeData) error {
		delete(d.ideas, sessionId)
		return nil
	})
}

func paginate[T any](list []T, specs []specification.Specification) []T {
	for _, spec := range specs {
		p, ok := spec.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset >= len(list) {
			return nil
		}
		list = list[p.Offset:]
		if p.Limit > 0 && p.Limit < len(list) {
			list = list[:p.Limit]
		}
	}
	return list
}

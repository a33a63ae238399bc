package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNoDocument — документ ещё ни разу не сохранялся.
var ErrNoDocument = errors.New("документ не найден")

// Document — один сериализованный документ.
type Document struct {
	Name string
	Body []byte
}

// Backend — постоянное хранилище документов.
type Backend interface {
	// Load возвращает тело документа или ErrNoDocument.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save записывает все документы снимка.
	Save(ctx context.Context, docs []Document) error
	Close() error
}

// MemoryBackend держит документы в памяти. Используется в тестах
// и для запуска без диска.
type MemoryBackend struct {
	mu       sync.Mutex
	docs     map[string][]byte
	failSave error
	saves    int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.docs[name]
	if !ok {
		return nil, ErrNoDocument
	}
	return append([]byte(nil), body...), nil
}

func (m *MemoryBackend) Save(_ context.Context, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	for _, d := range docs {
		m.docs[d.Name] = append([]byte(nil), d.Body...)
	}
	m.saves++
	return nil
}

// Put кладёт документ напрямую (подготовка данных в тестах).
func (m *MemoryBackend) Put(name string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = body
}

// Get возвращает сохранённый документ.
func (m *MemoryBackend) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.docs[name]
	return b, ok
}

// Saves — число успешных Save.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetFailSave задаёт ошибку для последующих Save (nil — снять).
func (m *MemoryBackend) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = err
}

func (m *MemoryBackend) Close() error { return nil }

package memory

import (
	"testing"

	"insightai-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressSaveIsolatesSteps(t *testing.T) {
	repo := NewProgressRepository()
	id := uuid.New()

	p := &entity.RunProgress{Id: id, Question: "q", Steps: []string{"🔍 Analyzing your question..."}}
	repo.Save(p)
	p.Steps[0] = "mutated"

	got, ok := repo.Get(id)
	require.True(t, ok)
	assert.Equal(t, []string{"🔍 Analyzing your question..."}, got.Steps)
	assert.False(t, got.Done)
}

func TestProgressFinishAndDelete(t *testing.T) {
	repo := NewProgressRepository()
	id := uuid.New()
	repo.Save(&entity.RunProgress{Id: id})

	repo.Finish(id)
	got, ok := repo.Get(id)
	require.True(t, ok)
	assert.True(t, got.Done)

	repo.Delete(id)
	_, ok = repo.Get(id)
	assert.False(t, ok)

	// Unknown ids are a no-op.
	repo.Finish(uuid.New())
}

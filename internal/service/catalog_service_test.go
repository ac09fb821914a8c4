package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSubjects(t *testing.T) {
	svc := NewCatalogService(&fakeStore{}, nil, zerolog.Nop())

	subjects, err := svc.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CS", "MATH"}, subjects)
}

func TestCatalogSemestersSortedDescending(t *testing.T) {
	svc := NewCatalogService(&fakeStore{}, nil, zerolog.Nop())

	semesters, err := svc.Semesters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"SP24", "FA23", "SP23"}, semesters)
}

func TestCatalogStoreUnavailable(t *testing.T) {
	svc := NewCatalogService(&fakeStore{err: errors.New("down")}, nil, zerolog.Nop())

	_, err := svc.Subjects(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = svc.Semesters(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

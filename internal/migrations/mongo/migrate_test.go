package mongo

import (
	"testing"

	attendancerepo "tutorhub/internal/attendance/repository"
	bookingrepo "tutorhub/internal/bookings/repository"
	currenttutorrepo "tutorhub/internal/currenttutors/repository"
	favoriterepo "tutorhub/internal/favorites/repository"
	progressrepo "tutorhub/internal/progressreports/repository"
	reviewrepo "tutorhub/internal/reviews/repository"
	feedbackrepo "tutorhub/internal/sessionfeedback/repository"
	materialrepo "tutorhub/internal/studymaterials/repository"
	tutorrepo "tutorhub/internal/tutors/repository"
	userrepo "tutorhub/internal/users/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverRepositories(t *testing.T) {
	names := []string{
		userrepo.CollectionName,
		tutorrepo.CollectionName,
		bookingrepo.CollectionName,
		bookingrepo.LockCollectionName,
		currenttutorrepo.CollectionName,
		attendancerepo.CollectionName,
		feedbackrepo.CollectionName,
		reviewrepo.CollectionName,
		materialrepo.CollectionName,
		favoriterepo.CollectionName,
		progressrepo.CollectionName,
	}
	assert.Len(t, Collections, len(names))
	for _, name := range names {
		_, ok := Collections[name]
		assert.True(t, ok, name)
	}
}

func TestUniqueIndexes(t *testing.T) {
	unique := func(collection string, keys ...string) {
		t.Helper()
		for _, idx := range Collections[collection].Indexes {
			d, ok := idx.Keys.(bson.D)
			require.True(t, ok)
			if len(d) != len(keys) {
				continue
			}
			match := true
			for i, e := range d {
				match = match && e.Key == keys[i]
			}
			if match {
				require.NotNil(t, idx.Options, collection)
				require.NotNil(t, idx.Options.Unique, collection)
				assert.True(t, *idx.Options.Unique, collection)
				return
			}
		}
		t.Errorf("no index on %s%v", collection, keys)
	}

	unique("users", "email")
	unique("tutor_profiles", "user_id")
	unique("current_tutors", "student_id", "tutor_id", "subject")
	unique("attendance", "booking_id")
	unique("session_feedback", "booking_id")
	unique("reviews", "booking_id")
	unique("favorites", "student_id", "tutor_id")
}

func TestBookingLocksExpire(t *testing.T) {
	idx := Collections["booking_locks"].Indexes
	require.Len(t, idx, 1)
	require.NotNil(t, idx[0].Options.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *idx[0].Options.ExpireAfterSeconds)
}

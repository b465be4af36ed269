package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilterBuilderChaining(t *testing.T) {
	filter := NewFilter().
		Eq("is_group", false).
		Ne("is_deleted", true).
		Build()

	assert.Equal(t, bson.M{
		"is_group":   false,
		"is_deleted": bson.M{"$ne": true},
	}, filter)
}

func TestFilterBuilderMergesOperatorsPerField(t *testing.T) {
	// $all and $size on the same array field must both survive; this is the
	// exact-pair lookup shape for direct conversations.
	filter := NewFilter().
		All("participant_ids", []string{"alice", "bob"}).
		Size("participant_ids", 2).
		Build()

	assert.Equal(t, bson.M{
		"$all":  []string{"alice", "bob"},
		"$size": 2,
	}, filter["participant_ids"])
}

func TestFilterBuilderObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	filter := NewFilter().ObjectID("_id", oid.Hex()).Build()
	assert.Equal(t, oid, filter["_id"])

	// Invalid hex leaves the field unset rather than matching nothing odd.
	filter = NewFilter().ObjectID("_id", "not-hex").Build()
	_, ok := filter["_id"]
	assert.False(t, ok)
}

func TestFilterBuilderInAndExists(t *testing.T) {
	filter := NewFilter().
		In("status", []string{"sent", "delivered"}).
		Exists("deleted_at", false).
		Build()

	assert.Equal(t, bson.M{"$in": []string{"sent", "delivered"}}, filter["status"])
	assert.Equal(t, bson.M{"$exists": false}, filter["deleted_at"])
}

func TestFilterBuilderOr(t *testing.T) {
	filter := NewFilter().Or(
		bson.M{"sender_id": "alice"},
		bson.M{"recipient_id": "alice"},
	).Build()

	clauses, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	assert.Len(t, clauses, 2)

	// Empty Or is a no-op.
	filter = NewFilter().Or().Build()
	_, ok = filter["$or"]
	assert.False(t, ok)
}

func TestEmptyFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, Empty())
}

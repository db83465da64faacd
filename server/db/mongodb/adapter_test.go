package mongodb

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	types "github.com/agoranet/agora/server/store/types"
	mdb "go.mongodb.org/mongo-driver/mongo"
)

func TestKindSchemas(t *testing.T) {
	ctxSchema := schemas[types.KindContext]
	if ctxSchema.canonical != "contexts" || ctxSchema.userField != "subscribedTo" ||
		ctxSchema.identField != "hash" || ctxSchema.activities != "activity" {
		t.Errorf("context schema: %+v", ctxSchema)
	}
	convSchema := schemas[types.KindConversation]
	if convSchema.canonical != "conversations" || convSchema.userField != "talkingIn" ||
		convSchema.identField != "id" || convSchema.activities != "messages" {
		t.Errorf("conversation schema: %+v", convSchema)
	}
}

func TestNormalizeUpdate(t *testing.T) {
	got := normalizeUpdate(map[string]interface{}{
		"displayName": "x",
		"":            "clobber",
		"tags":        []string{"a"},
	})
	want := map[string]interface{}{
		"displayName": "x",
		"tags":        []string{"a"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalizeUpdate mismatch (-want +got):\n%s", diff)
	}
}

func TestIsDuplicateErr(t *testing.T) {
	if isDuplicateErr(nil) {
		t.Error("nil error reported as duplicate")
	}
	if isDuplicateErr(errors.New("random")) {
		t.Error("random error reported as duplicate")
	}
	dup := mdb.WriteException{WriteErrors: mdb.WriteErrors{{Code: 11000}}}
	if !isDuplicateErr(dup) {
		t.Error("E11000 not reported as duplicate")
	}
	other := mdb.WriteException{WriteErrors: mdb.WriteErrors{{Code: 121}}}
	if isDuplicateErr(other) {
		t.Error("non-11000 write error reported as duplicate")
	}
}

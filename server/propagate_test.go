package main

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"

	"github.com/agoranet/agora/server/store/types"
)

func subscribedUser(username string, sub types.Subscription) types.User {
	u := types.User{Username: username, DisplayName: username, Owner: username}
	switch sub.ObjectType {
	case "conversation":
		u.TalkingIn = []types.Subscription{sub}
	default:
		u.SubscribedTo = []types.Subscription{sub}
	}
	return u
}

func TestUpdateActivityCopies(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")

	env.activities.EXPECT().UpdateContextCopies(types.KindContext, ctx.Hash,
		gomock.Eq(map[string]interface{}{"displayName": ctx.DisplayName})).Return(nil)

	if err := updateActivityCopies(ctx, fieldSet{fldDisplayName: true}, false); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateActivityCopiesSkipsPermissionOnlyChanges(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	// Permissions never reach activity snapshots; with nothing else changed
	// the store must not be touched.
	if err := updateActivityCopies(ctx, fieldSet{fldPermissions: true}, false); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateActivityCopiesForced(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")

	env.activities.EXPECT().UpdateContextCopies(types.KindContext, ctx.Hash,
		gomock.Eq(map[string]interface{}{
			"displayName": ctx.DisplayName,
			"tags":        ctx.Tags,
			"url":         ctx.URL,
			"hash":        ctx.Hash,
		})).Return(nil)

	if err := updateActivityCopies(ctx, nil, true); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateSubscriberCopiesDisplayName(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	bob := subscribedUser("bob", types.Subscription{ObjectType: "context", Hash: ctx.Hash})

	env.users.EXPECT().ForMember(types.KindContext, ctx.Hash).Return([]types.User{bob}, nil)
	env.users.EXPECT().UpdateSubscription("bob", types.KindContext, ctx.Hash,
		gomock.Eq(map[string]interface{}{"displayName": ctx.DisplayName})).Return(nil)

	if errs := updateSubscriberCopies(ctx, fieldSet{fldDisplayName: true}, false); len(errs) != 0 {
		t.Fatal(errs)
	}
}

func TestUpdateSubscriberCopiesRecomputesPermissions(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	// Write was subscribed, now it is restricted.
	ctx.Policy = types.Policy{
		types.PermRead:      types.ModePublic,
		types.PermWrite:     types.ModeRestricted,
		types.PermSubscribe: types.ModePublic,
	}
	bob := subscribedUser("bob", types.Subscription{
		ObjectType:  "context",
		Hash:        ctx.Hash,
		Permissions: []types.Permission{types.PermRead, types.PermWrite, types.PermUnsubscribe},
		Grants:      []types.Permission{types.PermInvite},
		Vetos:       []types.Permission{types.PermRead},
	})

	env.users.EXPECT().ForMember(types.KindContext, ctx.Hash).Return([]types.User{bob}, nil)
	env.users.EXPECT().UpdateSubscription("bob", types.KindContext, ctx.Hash, gomock.Any()).DoAndReturn(
		func(username string, kind types.MembershipKind, ident string, update map[string]interface{}) error {
			want := []types.Permission{types.PermInvite, types.PermUnsubscribe}
			if diff := cmp.Diff(want, update["permissions"]); diff != "" {
				t.Errorf("recomputed permissions mismatch (-want +got):\n%s", diff)
			}
			return nil
		})

	if errs := updateSubscriberCopies(ctx, fieldSet{fldPermissions: true}, false); len(errs) != 0 {
		t.Fatal(errs)
	}
}

func TestUpdateSubscriberCopiesURLRename(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/old")
	oldURL, oldHash := ctx.URL, ctx.Hash
	ctx.SetURL("http://example.com/new")

	bob := subscribedUser("bob", types.Subscription{ObjectType: "context", Hash: oldHash})

	// Copies are still stored under the pre-change identifier.
	env.users.EXPECT().ForMember(types.KindContext, oldHash).Return([]types.User{bob}, nil)
	env.users.EXPECT().UpdateSubscription("bob", types.KindContext, oldHash,
		gomock.Eq(map[string]interface{}{
			"url":  "http://example.com/new",
			"hash": ctx.Hash,
		})).Return(nil)
	env.activities.EXPECT().RetargetActor("bob", oldURL, "http://example.com/new", ctx.Hash).Return(nil)

	if errs := updateSubscriberCopies(ctx, fieldSet{fldURL: true}, false); len(errs) != 0 {
		t.Fatal(errs)
	}
}

func TestUpdateSubscriberCopiesContinuesPastFailures(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	ann := subscribedUser("ann", types.Subscription{ObjectType: "context", Hash: ctx.Hash})
	bob := subscribedUser("bob", types.Subscription{ObjectType: "context", Hash: ctx.Hash})

	env.users.EXPECT().ForMember(types.KindContext, ctx.Hash).Return([]types.User{ann, bob}, nil)
	env.users.EXPECT().UpdateSubscription("ann", types.KindContext, ctx.Hash, gomock.Any()).
		Return(errors.New("write failed"))
	env.users.EXPECT().UpdateSubscription("bob", types.KindContext, ctx.Hash, gomock.Any()).
		Return(nil)

	errs := updateSubscriberCopies(ctx, fieldSet{fldDisplayName: true}, false)
	if len(errs) != 1 {
		t.Fatalf("want one recorded error, got %d: %v", len(errs), errs)
	}
}

func TestUpdateSubscriberCopiesNothingChanged(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	if errs := updateSubscriberCopies(ctx, fieldSet{}, false); errs != nil {
		t.Fatal(errs)
	}
}

func TestUpdateSubscriberCopiesConversationParticipants(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	conv := &types.Conversation{
		Id:     "c1",
		Owner:  "ann",
		Policy: conversationPolicy(),
		Participants: []types.Participant{
			{Username: "ann", ObjectType: "person"},
			{Username: "bob", ObjectType: "person"},
		},
	}
	ann := subscribedUser("ann", types.Subscription{ObjectType: "conversation", Id: "c1"})

	env.users.EXPECT().ForMember(types.KindConversation, "c1").Return([]types.User{ann}, nil)
	env.users.EXPECT().UpdateSubscription("ann", types.KindConversation, "c1",
		gomock.Eq(map[string]interface{}{"participants": conv.Participants})).Return(nil)

	if errs := updateSubscriberCopies(conv, fieldSet{fldParticipants: true}, false); len(errs) != 0 {
		t.Fatal(errs)
	}
}

package main

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/queue"
	"github.com/agoranet/agora/server/store"
	"github.com/agoranet/agora/server/store/mock_store"
	"github.com/agoranet/agora/server/store/types"
)

// testEnv replaces the persistence mappers with mocks for one test.
type testEnv struct {
	ctrl          *gomock.Controller
	contexts      *mock_store.MockContextsPersistenceInterface
	conversations *mock_store.MockConversationsPersistenceInterface
	users         *mock_store.MockUsersPersistenceInterface
	activities    *mock_store.MockActivitiesPersistenceInterface
}

func setupTestEnv(t *testing.T) *testEnv {
	logs.Init()
	globals.notifier = queue.NewRabbitMQ()
	globals.maxParticipants = 20

	ctrl := gomock.NewController(t)
	env := &testEnv{
		ctrl:          ctrl,
		contexts:      mock_store.NewMockContextsPersistenceInterface(ctrl),
		conversations: mock_store.NewMockConversationsPersistenceInterface(ctrl),
		users:         mock_store.NewMockUsersPersistenceInterface(ctrl),
		activities:    mock_store.NewMockActivitiesPersistenceInterface(ctrl),
	}
	store.Contexts = env.contexts
	store.Conversations = env.conversations
	store.Users = env.users
	store.Activities = env.activities
	return env
}

func (env *testEnv) teardown() {
	store.Contexts = nil
	store.Conversations = nil
	store.Users = nil
	store.Activities = nil
	env.ctrl.Finish()
}

// countingObserver records hook invocations.
type countingObserver struct {
	created, added, removed, deleted int
}

func (o *countingObserver) AfterCreate(types.Canonical)         { o.created++ }
func (o *countingObserver) AfterAdd(types.Canonical, string)    { o.added++ }
func (o *countingObserver) AfterRemove(types.Canonical, string) { o.removed++ }
func (o *countingObserver) AfterDelete(types.Canonical)         { o.deleted++ }

func testContext(url string) *types.Context {
	ctx := &types.Context{
		URL:         url,
		DisplayName: "Test context",
		Tags:        []string{"test"},
		Policy: types.Policy{
			types.PermRead:      types.ModePublic,
			types.PermWrite:     types.ModeSubscribed,
			types.PermSubscribe: types.ModePublic,
		},
		Owner:   "ann",
		Creator: "ann",
	}
	ctx.Hash = ctx.Identifier()
	return ctx
}

func testUser(username string) *types.User {
	return &types.User{Username: username, DisplayName: username, Owner: username}
}

func TestSubscribe(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	user := testUser("bob")

	env.users.EXPECT().AddSubscription("bob", types.KindContext, gomock.Any()).Return(nil)
	env.activities.EXPECT().Save(types.KindContext, gomock.Any()).Return(nil)

	obs := &countingObserver{}
	sub, err := subscribe(ctx, user, obs)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Hash != ctx.Hash {
		t.Errorf("snapshot hash: want %s, got %s", ctx.Hash, sub.Hash)
	}
	if len(sub.Permissions) == 0 {
		t.Error("permissions not computed on subscribe")
	}
	if obs.added != 1 {
		t.Errorf("after-add hook fired %d times", obs.added)
	}
}

func TestSubscribeAlreadySubscribed(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	user := testUser("bob")
	user.SubscribedTo = []types.Subscription{{ObjectType: "context", Hash: ctx.Hash}}

	if _, err := subscribe(ctx, user, &countingObserver{}); err != types.ErrDuplicate {
		t.Errorf("want ErrDuplicate, got %v", err)
	}
}

func TestSubscribeUnresolvableContext(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	if _, err := subscribe(&types.Context{}, testUser("bob"), &countingObserver{}); err != types.ErrUnresolvable {
		t.Errorf("want ErrUnresolvable, got %v", err)
	}
}

func TestUnsubscribeNotSubscribed(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	if err := unsubscribe(ctx, testUser("bob"), &countingObserver{}); err != types.ErrNotSubscribed {
		t.Errorf("want ErrNotSubscribed, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	user := testUser("bob")
	user.SubscribedTo = []types.Subscription{{ObjectType: "context", Hash: ctx.Hash}}

	env.users.EXPECT().RemoveSubscription("bob", types.KindContext, ctx.Hash).Return(nil)

	obs := &countingObserver{}
	if err := unsubscribe(ctx, user, obs); err != nil {
		t.Fatal(err)
	}
	if obs.removed != 1 {
		t.Errorf("after-remove hook fired %d times", obs.removed)
	}
}

func TestUnsubscribeOwnerCannotLeaveConversation(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	conv := &types.Conversation{
		Id:    "c1",
		Owner: "ann",
		Participants: []types.Participant{
			{Username: "ann", ObjectType: "person"},
			{Username: "bob", ObjectType: "person"},
		},
	}
	ann := testUser("ann")
	ann.TalkingIn = []types.Subscription{{ObjectType: "conversation", Id: "c1"}}

	if err := unsubscribe(conv, ann, &countingObserver{}); err != types.ErrPermissionDenied {
		t.Errorf("want ErrPermissionDenied, got %v", err)
	}
}

func TestUnsubscribeConversationShrinksParticipants(t *testing.T) {
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
	bob := testUser("bob")
	bob.TalkingIn = []types.Subscription{{ObjectType: "conversation", Id: "c1"}}

	env.users.EXPECT().RemoveSubscription("bob", types.KindConversation, "c1").Return(nil)
	env.conversations.EXPECT().Update("c1", gomock.Any()).Return(nil)
	// Remaining member gets the new participant list.
	ann := testUser("ann")
	ann.TalkingIn = []types.Subscription{{ObjectType: "conversation", Id: "c1"}}
	env.users.EXPECT().ForMember(types.KindConversation, "c1").Return([]types.User{*ann}, nil)
	env.users.EXPECT().UpdateSubscription("ann", types.KindConversation, "c1", gomock.Any()).Return(nil)

	obs := &countingObserver{}
	if err := unsubscribe(conv, bob, obs); err != nil {
		t.Fatal(err)
	}
	if conv.HasParticipant("bob") {
		t.Error("participant not removed from canonical list")
	}
	if obs.removed != 1 {
		t.Errorf("after-remove hook fired %d times", obs.removed)
	}
}

func TestDeleteCascadeOrdering(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	bob := testUser("bob")
	bob.SubscribedTo = []types.Subscription{{ObjectType: "context", Hash: ctx.Hash}}

	// Subscribers first, then activities, then the canonical record.
	gomock.InOrder(
		env.users.EXPECT().ForMember(types.KindContext, ctx.Hash).Return([]types.User{*bob}, nil),
		env.users.EXPECT().RemoveSubscription("bob", types.KindContext, ctx.Hash).Return(nil),
		env.activities.EXPECT().RemoveForContext(types.KindContext, ctx.Hash, true).Return(nil),
		env.contexts.EXPECT().Delete(ctx.Hash).Return(nil),
	)

	obs := &countingObserver{}
	if err := deleteCanonical(ctx, true, obs); err != nil {
		t.Fatal(err)
	}
	if obs.removed != 1 || obs.deleted != 1 {
		t.Errorf("hooks: removed=%d deleted=%d", obs.removed, obs.deleted)
	}
}

func TestModifyContextPropagatesDisplayName(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	bob := testUser("bob")
	bob.SubscribedTo = []types.Subscription{{ObjectType: "context", Hash: ctx.Hash}}

	newName := "Renamed"
	env.contexts.EXPECT().Update(ctx.Hash,
		gomock.Eq(map[string]interface{}{"displayName": "Renamed"})).Return(nil)
	env.activities.EXPECT().UpdateContextCopies(types.KindContext, ctx.Hash,
		gomock.Eq(map[string]interface{}{"displayName": "Renamed"})).Return(nil)
	env.users.EXPECT().ForMember(types.KindContext, ctx.Hash).Return([]types.User{*bob}, nil)
	env.users.EXPECT().UpdateSubscription("bob", types.KindContext, ctx.Hash,
		gomock.Eq(map[string]interface{}{"displayName": "Renamed"})).Return(nil)

	updated, err := modifyContext(ctx, &contextUpdate{DisplayName: &newName})
	if err != nil {
		t.Fatal(err)
	}
	if updated.DisplayName != "Renamed" {
		t.Errorf("canonical displayName: %s", updated.DisplayName)
	}
}

func TestModifyContextRejectsEmptyURL(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	empty := ""
	if _, err := modifyContext(ctx, &contextUpdate{URL: &empty}); err != types.ErrMalformed {
		t.Errorf("want ErrMalformed, got %v", err)
	}
}

func TestModifyContextNoChanges(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	same := ctx.DisplayName
	// Nothing persisted, nothing propagated.
	if _, err := modifyContext(ctx, &contextUpdate{DisplayName: &same}); err != nil {
		t.Fatal(err)
	}
}

func TestEffectivePermissions(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	bob := testUser("bob")

	if _, err := effectivePermissions(ctx, bob); err != types.ErrNotSubscribed {
		t.Errorf("want ErrNotSubscribed, got %v", err)
	}

	bob.SubscribedTo = []types.Subscription{{
		ObjectType: "context",
		Hash:       ctx.Hash,
		// Stale computed set; overrides survive.
		Permissions: []types.Permission{types.PermRead},
		Grants:      []types.Permission{types.PermInvite},
		Vetos:       []types.Permission{types.PermRead},
	}}

	perms, err := effectivePermissions(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	has := func(p types.Permission) bool {
		for _, v := range perms {
			if v == p {
				return true
			}
		}
		return false
	}
	if has(types.PermRead) {
		t.Errorf("vetoed read present: %v", perms)
	}
	if !has(types.PermInvite) || !has(types.PermWrite) || !has(types.PermUnsubscribe) {
		t.Errorf("unexpected permission set: %v", perms)
	}
}

func TestCreateConversationValidation(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ann := testUser("ann")

	if _, err := createConversation(ann, "chat", nil); err != types.ErrMalformed {
		t.Errorf("empty participants: want ErrMalformed, got %v", err)
	}

	others := []types.Participant{{Username: "bob", ObjectType: "person"}}
	if _, err := createConversation(ann, "chat", others); err != types.ErrMalformed {
		t.Errorf("creator not listed: want ErrMalformed, got %v", err)
	}
}

func TestCreateConversationSubscribesParticipants(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ann := testUser("ann")
	participants := []types.Participant{
		{Username: "ann", DisplayName: "ann", ObjectType: "person"},
		{Username: "bob", DisplayName: "bob", ObjectType: "person"},
	}

	env.conversations.EXPECT().Create(gomock.Any()).DoAndReturn(
		func(conv *types.Conversation) error {
			conv.Id = "c1"
			return nil
		})
	env.users.EXPECT().Get("ann").Return(testUser("ann"), nil)
	env.users.EXPECT().Get("bob").Return(testUser("bob"), nil)
	env.users.EXPECT().AddSubscription("ann", types.KindConversation, gomock.Any()).Return(nil)
	env.users.EXPECT().AddSubscription("bob", types.KindConversation, gomock.Any()).Return(nil)
	env.activities.EXPECT().Save(types.KindConversation, gomock.Any()).Return(nil).Times(2)

	conv, err := createConversation(ann, "chat", participants)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Owner != "ann" {
		t.Errorf("owner: %s", conv.Owner)
	}
	if len(conv.Tags) != 0 {
		t.Errorf("two-person conversation tagged: %v", conv.Tags)
	}
}

func TestJoinConversationLimit(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()
	globals.maxParticipants = 2

	conv := &types.Conversation{
		Id:     "c1",
		Owner:  "ann",
		Policy: conversationPolicy(),
		Participants: []types.Participant{
			{Username: "ann", ObjectType: "person"},
			{Username: "bob", ObjectType: "person"},
		},
	}

	if _, err := joinConversation(conv, testUser("cyn"), "ann"); err != types.ErrPermissionDenied {
		t.Errorf("want ErrPermissionDenied, got %v", err)
	}
}

func TestJoinConversationRestrictedToOwner(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	conv := &types.Conversation{
		Id:     "c1",
		Owner:  "ann",
		Policy: conversationPolicy(),
		Participants: []types.Participant{
			{Username: "ann", ObjectType: "person"},
		},
	}

	// Joining on your own initiative is not allowed in restricted
	// conversations.
	if _, err := joinConversation(conv, testUser("cyn"), "cyn"); err != types.ErrUnauthorized {
		t.Errorf("want ErrUnauthorized, got %v", err)
	}
}

func TestLeaveConversationAuthorization(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	conv := &types.Conversation{
		Id:     "c1",
		Owner:  "ann",
		Policy: conversationPolicy(),
		Participants: []types.Participant{
			{Username: "ann", ObjectType: "person"},
			{Username: "bob", ObjectType: "person"},
			{Username: "cyn", ObjectType: "person"},
		},
	}
	bob := testUser("bob")
	bob.TalkingIn = []types.Subscription{{ObjectType: "conversation", Id: "c1"}}

	// A third party cannot force a participant out.
	if err := leaveConversation(conv, bob, "cyn"); err != types.ErrUnauthorized {
		t.Errorf("want ErrUnauthorized, got %v", err)
	}
}

func TestSubscribeStoreFailureSurfaces(t *testing.T) {
	env := setupTestEnv(t)
	defer env.teardown()

	ctx := testContext("http://example.com/a")
	boom := errors.New("boom")
	env.users.EXPECT().AddSubscription("bob", types.KindContext, gomock.Any()).Return(boom)

	obs := &countingObserver{}
	if _, err := subscribe(ctx, testUser("bob"), obs); err != boom {
		t.Errorf("want underlying store error, got %v", err)
	}
	if obs.added != 0 {
		t.Error("after-add hook fired despite store failure")
	}
}

package types

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
)

func permList(perms ...Permission) []Permission {
	out := append([]Permission(nil), perms...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestResolvePolicy(t *testing.T) {
	cases := []struct {
		name string
		raw  Policy
		want Policy
	}{
		{
			"empty policy gets all defaults",
			Policy{},
			Policy{
				PermRead:        ModePublic,
				PermWrite:       ModePublic,
				PermSubscribe:   ModePublic,
				PermInvite:      ModeRestricted,
				PermUnsubscribe: ModePublic,
				PermDelete:      ModeRestricted,
			},
		},
		{
			"unsubscribe inherits subscribe",
			Policy{PermSubscribe: ModeRestricted},
			Policy{
				PermRead:        ModePublic,
				PermWrite:       ModePublic,
				PermSubscribe:   ModeRestricted,
				PermInvite:      ModeRestricted,
				PermUnsubscribe: ModeRestricted,
				PermDelete:      ModeRestricted,
			},
		},
		{
			"explicit unsubscribe wins over subscribe",
			Policy{PermSubscribe: ModeRestricted, PermUnsubscribe: ModePublic},
			Policy{
				PermRead:        ModePublic,
				PermWrite:       ModePublic,
				PermSubscribe:   ModeRestricted,
				PermInvite:      ModeRestricted,
				PermUnsubscribe: ModePublic,
				PermDelete:      ModeRestricted,
			},
		},
	}

	for _, tc := range cases {
		got := ResolvePolicy(tc.raw)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s: (-want +got):\n%s", tc.name, diff)
		}
		// Resolution is idempotent.
		if diff := cmp.Diff(got, ResolvePolicy(got)); diff != "" {
			t.Errorf("%s: not idempotent (-first +second):\n%s", tc.name, diff)
		}
	}
}

func TestSubscriberPermissions(t *testing.T) {
	policy := Policy{
		PermRead:      ModePublic,
		PermWrite:     ModeSubscribed,
		PermSubscribe: ModePublic,
	}

	// No overrides.
	got := ResolvePolicy(policy).SubscriberPermissions(nil, nil)
	want := permList(PermRead, PermWrite, PermUnsubscribe)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("no overrides: (-want +got):\n%s", diff)
	}

	// Granted invite, vetoed read.
	got = ResolvePolicy(policy).SubscriberPermissions(
		[]Permission{PermInvite}, []Permission{PermRead})
	want = permList(PermWrite, PermUnsubscribe, PermInvite)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("grants+vetos: (-want +got):\n%s", diff)
	}
}

func TestSubscriberPermissionsDeterministic(t *testing.T) {
	policy := ResolvePolicy(Policy{
		PermRead:  ModeSubscribed,
		PermWrite: ModePublic,
	})
	grants := []Permission{PermDelete, PermInvite}
	vetos := []Permission{PermWrite}

	first := policy.SubscriberPermissions(grants, vetos)
	for i := 0; i < 5; i++ {
		again := policy.SubscriberPermissions(grants, vetos)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
	// Override list order is irrelevant.
	shuffled := policy.SubscriberPermissions(
		[]Permission{PermInvite, PermDelete}, vetos)
	if diff := cmp.Diff(first, shuffled); diff != "" {
		t.Errorf("order-dependent result (-want +got):\n%s", diff)
	}
}

func TestGrantsBeatVetos(t *testing.T) {
	policy := ResolvePolicy(Policy{})
	for _, perm := range []Permission{PermRead, PermWrite, PermInvite, PermDelete} {
		got := policy.SubscriberPermissions([]Permission{perm}, []Permission{perm})
		found := false
		for _, p := range got {
			if p == perm {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s: granted+vetoed token missing from %v", perm, got)
		}
	}
}

func TestDeleteFallsBackToDefault(t *testing.T) {
	// Absent delete resolves to the restricted system default, not granted.
	got := ResolvePolicy(Policy{}).SubscriberPermissions(nil, nil)
	for _, p := range got {
		if p == PermDelete {
			t.Errorf("delete granted with no policy entry: %v", got)
		}
	}

	got = ResolvePolicy(Policy{PermDelete: ModeSubscribed}).SubscriberPermissions(nil, nil)
	found := false
	for _, p := range got {
		if p == PermDelete {
			found = true
		}
	}
	if !found {
		t.Errorf("delete not granted with subscribed policy: %v", got)
	}
}

func TestContextHash(t *testing.T) {
	if got := ContextHash("http://example.com/activitats"); got != "1b1dd8442b348e7287c852daf9c64f42e88a478c" {
		t.Errorf("unexpected hash %s", got)
	}
	// Empty URL is unresolvable, never a real identifier.
	if got := ContextHash(""); got != "" {
		t.Errorf("empty url produced identifier %q", got)
	}
}

func TestContextURLChange(t *testing.T) {
	ctx := &Context{URL: "http://example.com/a"}
	ctx.Hash = ctx.Identifier()
	oldHash := ctx.Hash

	ctx.SetURL("http://example.com/b")

	if ctx.Identifier() == oldHash {
		t.Error("identifier did not change after SetURL")
	}
	if ctx.PreviousIdentifier() != oldHash {
		t.Errorf("previous identifier: want %s, got %s", oldHash, ctx.PreviousIdentifier())
	}
	if ctx.PreviousURL() != "http://example.com/a" {
		t.Errorf("previous url: got %s", ctx.PreviousURL())
	}
	if !ctx.URLChangePending() {
		t.Error("url change not marked pending")
	}

	fresh := &Context{URL: "http://example.com/a"}
	if fresh.URLChangePending() {
		t.Error("fresh context reports pending url change")
	}
	if fresh.PreviousIdentifier() != fresh.Identifier() {
		t.Error("previous identifier differs with no pending change")
	}
}

func TestConversationRecomputeTags(t *testing.T) {
	p := func(names ...string) []Participant {
		var out []Participant
		for _, n := range names {
			out = append(out, Participant{Username: n, ObjectType: "person"})
		}
		return out
	}

	cases := []struct {
		name         string
		participants []Participant
		tags         []string
		want         []string
	}{
		{"empty is archived group", p(), nil, []string{"archive", "group"}},
		{"single participant is archived group", p("ann"), nil, []string{"archive", "group"}},
		{"two participants untagged", p("ann", "bob"), nil, []string{}},
		{"archive kept on two participants", p("ann", "bob"), []string{"archive"}, []string{"archive"}},
		{"three participants grouped", p("ann", "bob", "cyn"), nil, []string{"group"}},
		{"stale tags dropped", p("ann", "bob", "cyn"), []string{"archive", "single"}, []string{"group"}},
	}

	for _, tc := range cases {
		conv := &Conversation{Participants: tc.participants, Tags: tc.tags}
		conv.RecomputeTags()
		if diff := cmp.Diff(tc.want, conv.Tags); diff != "" {
			t.Errorf("%s: (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestParticipantDecodeLegacy(t *testing.T) {
	// A stored participant array may mix structured docs with ancient
	// plain-string entries.
	doc := bson.M{
		"participants": bson.A{
			bson.M{"username": "ann", "displayName": "Ann", "objectType": "person"},
			"bob",
		},
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Participants []Participant `bson:"participants"`
	}
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	if len(decoded.Participants) != 2 {
		t.Fatalf("want 2 participants, got %d", len(decoded.Participants))
	}
	if decoded.Participants[0].legacy {
		t.Error("structured participant marked legacy")
	}
	if decoded.Participants[0].DisplayName != "Ann" {
		t.Errorf("displayName: got %q", decoded.Participants[0].DisplayName)
	}
	if !decoded.Participants[1].legacy {
		t.Error("plain-string participant not marked legacy")
	}
	if decoded.Participants[1].Username != "bob" {
		t.Errorf("username: got %q", decoded.Participants[1].Username)
	}

	conv := &Conversation{Participants: decoded.Participants}
	if !conv.MigrateParticipants() {
		t.Error("migration reported no change")
	}
	if conv.Participants[1].ObjectType != "person" || conv.Participants[1].DisplayName != "bob" {
		t.Errorf("migrated participant: %+v", conv.Participants[1])
	}
	if conv.MigrateParticipants() {
		t.Error("second migration reported changes")
	}
}

func TestSubscriptionIdentifier(t *testing.T) {
	ctxSub := &Subscription{Hash: "abc"}
	if ctxSub.Identifier() != "abc" {
		t.Errorf("context subscription identifier: %s", ctxSub.Identifier())
	}
	convSub := &Subscription{Id: "42", Hash: "ignored"}
	if convSub.Identifier() != "42" {
		t.Errorf("conversation subscription identifier: %s", convSub.Identifier())
	}
}

func TestNewSubscriptionSquashesPrivateFields(t *testing.T) {
	ctx := &Context{
		URL:           "http://example.com/a",
		DisplayName:   "A",
		Tags:          []string{"x"},
		Notifications: true,
		Owner:         "ann",
		Creator:       "ann",
		UploadURL:     "http://up.example.com",
	}
	ctx.Hash = ctx.Identifier()

	sub := ctx.NewSubscription()
	if sub.Hash != ctx.Hash || sub.URL != ctx.URL || sub.DisplayName != "A" {
		t.Errorf("snapshot fields: %+v", sub)
	}
	if !sub.Notifications {
		t.Error("notifications flag not copied")
	}
	if len(sub.Permissions) == 0 {
		t.Error("permissions not computed")
	}
	if len(sub.Grants) != 0 || len(sub.Vetos) != 0 {
		t.Error("fresh subscription carries overrides")
	}
}

func TestUidGenerator(t *testing.T) {
	var gen UidGenerator
	key := []byte("0123456789012345")
	if err := gen.Init(1, key); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := gen.Get()
		if len(id) != 11 {
			t.Fatalf("id length: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

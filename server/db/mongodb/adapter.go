// Package mongodb is a database adapter for MongoDB.
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	adp "github.com/agoranet/agora/server/db"
	"github.com/agoranet/agora/server/store"
	t "github.com/agoranet/agora/server/store/types"
	b "go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	mdbopts "go.mongodb.org/mongo-driver/mongo/options"
)

// adapter holds MongoDB connection data.
type adapter struct {
	conn    *mdb.Client
	db      *mdb.Database
	dbName  string
	version int
	ctx     context.Context
}

const (
	defaultHost     = "localhost:27017"
	defaultDatabase = "agora"

	adpVersion  = 103
	adapterName = "mongodb"
)

// Collection and field names per membership kind. The canonical side keeps no
// subscriber list; membership is reconstructed by filtering these.
type kindSchema struct {
	// Collection holding the canonical documents.
	canonical string
	// Name of the membership array on the user document.
	userField string
	// Name of the identity field inside array elements.
	identField string
	// Collection holding activities posted to this kind of context.
	activities string
}

var schemas = map[t.MembershipKind]kindSchema{
	t.KindContext: {
		canonical:  "contexts",
		userField:  "subscribedTo",
		identField: "hash",
		activities: "activity",
	},
	t.KindConversation: {
		canonical:  "conversations",
		userField:  "talkingIn",
		identField: "id",
		activities: "messages",
	},
}

// See https://godoc.org/go.mongodb.org/mongo-driver/mongo/options#ClientOptions for explanations.
type configType struct {
	Addresses      interface{} `json:"addresses,omitempty"`
	ConnectTimeout int         `json:"timeout,omitempty"`

	Database   string `json:"database,omitempty"`
	ReplicaSet string `json:"replica_set,omitempty"`

	AuthSource string `json:"auth_source,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

// Open initializes a mongodb session.
func (a *adapter) Open(jsonconfig json.RawMessage) error {
	if a.conn != nil {
		return errors.New("adapter mongodb is already connected")
	}

	var err error
	var config configType
	if err = json.Unmarshal(jsonconfig, &config); err != nil {
		return errors.New("adapter mongodb failed to parse config: " + err.Error())
	}

	var opts mdbopts.ClientOptions

	if config.Addresses == nil {
		opts.SetHosts([]string{defaultHost})
	} else if host, ok := config.Addresses.(string); ok {
		opts.SetHosts([]string{host})
	} else if hosts, ok := config.Addresses.([]string); ok {
		opts.SetHosts(hosts)
	} else {
		return errors.New("adapter mongodb failed to parse config.Addresses")
	}

	if config.Database == "" {
		a.dbName = defaultDatabase
	} else {
		a.dbName = config.Database
	}

	if config.ReplicaSet != "" {
		opts.SetReplicaSet(config.ReplicaSet)
	}

	if config.Username != "" {
		var passwordSet bool
		if config.AuthSource == "" {
			config.AuthSource = "admin"
		}
		if config.Password != "" {
			passwordSet = true
		}
		opts.SetAuth(
			mdbopts.Credential{
				AuthMechanism: "SCRAM-SHA-256",
				AuthSource:    config.AuthSource,
				Username:      config.Username,
				Password:      config.Password,
				PasswordSet:   passwordSet,
			})
	}

	a.ctx = context.Background()
	a.conn, err = mdb.Connect(a.ctx, &opts)
	a.db = a.conn.Database(a.dbName)
	if err != nil {
		return err
	}
	a.version = -1

	return nil
}

// Close the adapter.
func (a *adapter) Close() error {
	var err error
	if a.conn != nil {
		err = a.conn.Disconnect(a.ctx)
		a.conn = nil
		a.version = -1
	}
	return err
}

// IsOpen checks if the adapter is ready for use.
func (a *adapter) IsOpen() bool {
	return a.conn != nil
}

// GetDbVersion returns current database version.
func (a *adapter) GetDbVersion() (int, error) {
	if a.version > 0 {
		return a.version, nil
	}

	var result struct {
		Key   string `bson:"_id"`
		Value int    `bson:"value"`
	}
	if err := a.db.Collection("kvmeta").FindOne(a.ctx, b.M{"_id": "version"}).Decode(&result); err != nil {
		if err == mdb.ErrNoDocuments {
			err = errors.New("database not initialized")
		}
		return -1, err
	}

	a.version = result.Value
	return result.Value, nil
}

// CheckDbVersion checks if the actual database version matches adapter version.
func (a *adapter) CheckDbVersion() error {
	version, err := a.GetDbVersion()
	if err != nil {
		return err
	}

	if version != adpVersion {
		return errors.New("invalid database version " + strconv.Itoa(version) +
			". Expected " + strconv.Itoa(adpVersion))
	}

	return nil
}

// Version returns adapter version.
func (a *adapter) Version() int {
	return adpVersion
}

// GetName returns the name of the adapter.
func (a *adapter) GetName() string {
	return adapterName
}

// Stats returns db connection stats object.
func (a *adapter) Stats() interface{} {
	if a.db == nil {
		return nil
	}
	var result b.M
	if err := a.db.RunCommand(a.ctx, b.D{{Key: "serverStatus", Value: 1}}, nil).Decode(&result); err != nil {
		return nil
	}
	return result["connections"]
}

// CreateDb creates the database optionally dropping an existing database first.
func (a *adapter) CreateDb(reset bool) error {
	if reset {
		if err := a.db.Drop(a.ctx); err != nil {
			return err
		}
	} else if a.isDbInitialized() {
		return errors.New("database already initialized")
	}
	// Collections do not need to be explicitly created since MongoDB creates
	// them with the first write operation.

	indexes := []struct {
		Collection string
		Field      string
		IndexOpts  mdb.IndexModel
	}{
		// Contexts are addressed by the hash of their URL.
		{
			Collection: "contexts",
			IndexOpts: mdb.IndexModel{
				Keys:    b.M{"hash": 1},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		// Conversations are filtered by participant usernames.
		{
			Collection: "conversations",
			Field:      "participants.username",
		},
		// Users are addressed by username.
		{
			Collection: "users",
			IndexOpts: mdb.IndexModel{
				Keys:    b.M{"username": 1},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		// Membership arrays are filtered by the referenced identifier when
		// fanning out canonical changes.
		{
			Collection: "users",
			Field:      "subscribedTo.hash",
		},
		{
			Collection: "users",
			Field:      "talkingIn.id",
		},
		// Activity copies are filtered by the referenced identifier.
		{
			Collection: "activity",
			Field:      "contexts.hash",
		},
		{
			Collection: "messages",
			Field:      "contexts.id",
		},
		// Actor-object retargeting after a URL change.
		{
			Collection: "activity",
			IndexOpts:  mdb.IndexModel{Keys: b.D{{Key: "actor.username", Value: 1}, {Key: "object.url", Value: 1}}},
		},
	}

	var err error
	for _, idx := range indexes {
		if idx.Field != "" {
			_, err = a.db.Collection(idx.Collection).Indexes().CreateOne(a.ctx, mdb.IndexModel{Keys: b.M{idx.Field: 1}})
		} else {
			_, err = a.db.Collection(idx.Collection).Indexes().CreateOne(a.ctx, idx.IndexOpts)
		}
		if err != nil {
			return err
		}
	}

	// Collection "kvmeta" with metadata key-value pairs. Key in "_id" field.
	// Record current DB version.
	if _, err := a.db.Collection("kvmeta").InsertOne(a.ctx, map[string]interface{}{"_id": "version", "value": adpVersion}); err != nil {
		return err
	}

	return nil
}

func (a *adapter) isDbInitialized() bool {
	var result map[string]int
	findOpts := mdbopts.FindOneOptions{Projection: b.M{"value": 1, "_id": 0}}
	if err := a.db.Collection("kvmeta").FindOne(a.ctx, b.M{"_id": "version"}, &findOpts).Decode(&result); err != nil {
		return false
	}
	return true
}

// ==================== Canonical contexts ========================

// ContextCreate inserts a canonical context record.
func (a *adapter) ContextCreate(ctx *t.Context) error {
	_, err := a.db.Collection("contexts").InsertOne(a.ctx, ctx)
	if isDuplicateErr(err) {
		return t.ErrDuplicate
	}
	return err
}

// ContextGet loads a context by its hash.
func (a *adapter) ContextGet(hash string) (*t.Context, error) {
	var ctx t.Context
	err := a.db.Collection("contexts").FindOne(a.ctx, b.M{"hash": hash}).Decode(&ctx)
	if err == mdb.ErrNoDocuments {
		return nil, t.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ctx, nil
}

// ContextsAll loads every canonical context.
func (a *adapter) ContextsAll() ([]t.Context, error) {
	cur, err := a.db.Collection("contexts").Find(a.ctx, b.M{})
	if err != nil {
		return nil, err
	}
	var ctxs []t.Context
	if err = cur.All(a.ctx, &ctxs); err != nil {
		return nil, err
	}
	return ctxs, nil
}

// ContextUpdate applies a partial update to a single context.
func (a *adapter) ContextUpdate(hash string, update map[string]interface{}) error {
	res, err := a.db.Collection("contexts").UpdateOne(a.ctx,
		b.M{"hash": hash},
		b.M{"$set": normalizeUpdate(update)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// ContextDelete removes a canonical context record.
func (a *adapter) ContextDelete(hash string) error {
	res, err := a.db.Collection("contexts").DeleteOne(a.ctx, b.M{"hash": hash})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// ==================== Canonical conversations ===================

// ConversationCreate inserts a canonical conversation record.
func (a *adapter) ConversationCreate(conv *t.Conversation) error {
	_, err := a.db.Collection("conversations").InsertOne(a.ctx, conv)
	if isDuplicateErr(err) {
		return t.ErrDuplicate
	}
	return err
}

// ConversationGet loads a conversation by id.
func (a *adapter) ConversationGet(id string) (*t.Conversation, error) {
	var conv t.Conversation
	err := a.db.Collection("conversations").FindOne(a.ctx, b.M{"_id": id}).Decode(&conv)
	if err == mdb.ErrNoDocuments {
		return nil, t.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationsAll loads every canonical conversation.
func (a *adapter) ConversationsAll() ([]t.Conversation, error) {
	cur, err := a.db.Collection("conversations").Find(a.ctx, b.M{})
	if err != nil {
		return nil, err
	}
	var convs []t.Conversation
	if err = cur.All(a.ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ConversationUpdate applies a partial update to a single conversation.
func (a *adapter) ConversationUpdate(id string, update map[string]interface{}) error {
	res, err := a.db.Collection("conversations").UpdateOne(a.ctx,
		b.M{"_id": id},
		b.M{"$set": normalizeUpdate(update)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// ConversationDelete removes a canonical conversation record.
func (a *adapter) ConversationDelete(id string) error {
	res, err := a.db.Collection("conversations").DeleteOne(a.ctx, b.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// ==================== Users and membership arrays ===============

// UserCreate inserts a user record.
func (a *adapter) UserCreate(user *t.User) error {
	_, err := a.db.Collection("users").InsertOne(a.ctx, user)
	if isDuplicateErr(err) {
		return t.ErrDuplicate
	}
	return err
}

// UserGet loads a user by username.
func (a *adapter) UserGet(username string) (*t.User, error) {
	var user t.User
	err := a.db.Collection("users").FindOne(a.ctx, b.M{"username": username}).Decode(&user)
	if err == mdb.ErrNoDocuments {
		return nil, t.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserUpdate applies a partial update to a user record.
func (a *adapter) UserUpdate(username string, update map[string]interface{}) error {
	res, err := a.db.Collection("users").UpdateOne(a.ctx,
		b.M{"username": username},
		b.M{"$set": normalizeUpdate(update)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// UsersAll loads every user record.
func (a *adapter) UsersAll() ([]t.User, error) {
	cur, err := a.db.Collection("users").Find(a.ctx, b.M{})
	if err != nil {
		return nil, err
	}
	var users []t.User
	if err = cur.All(a.ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UsersForMember loads all users whose membership array references the
// identifier.
func (a *adapter) UsersForMember(kind t.MembershipKind, ident string) ([]t.User, error) {
	s := schemas[kind]
	cur, err := a.db.Collection("users").Find(a.ctx, b.M{s.userField + "." + s.identField: ident})
	if err != nil {
		return nil, err
	}
	var users []t.User
	if err = cur.All(a.ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UsersWithMemberships loads all users having at least one membership entry
// of the given kind.
func (a *adapter) UsersWithMemberships(kind t.MembershipKind) ([]t.User, error) {
	s := schemas[kind]
	cur, err := a.db.Collection("users").Find(a.ctx, b.M{s.userField + ".0": b.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	var users []t.User
	if err = cur.All(a.ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SubsAdd appends a membership entry to a user's array.
func (a *adapter) SubsAdd(username string, kind t.MembershipKind, sub *t.Subscription) error {
	s := schemas[kind]
	res, err := a.db.Collection("users").UpdateOne(a.ctx,
		b.M{"username": username},
		b.M{"$push": b.M{s.userField: sub}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// SubsRemove deletes the membership entry referencing the identifier.
func (a *adapter) SubsRemove(username string, kind t.MembershipKind, ident string) error {
	s := schemas[kind]
	res, err := a.db.Collection("users").UpdateOne(a.ctx,
		b.M{"username": username},
		b.M{"$pull": b.M{s.userField: b.M{s.identField: ident}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// SubsUpdate applies a field-level update to the matching membership array
// element using the positional operator.
func (a *adapter) SubsUpdate(username string, kind t.MembershipKind, ident string, update map[string]interface{}) error {
	s := schemas[kind]
	set := b.M{}
	for field, value := range normalizeUpdate(update) {
		set[s.userField+".$."+field] = value
	}
	_, err := a.db.Collection("users").UpdateMany(a.ctx,
		b.M{"username": username, s.userField + "." + s.identField: ident},
		b.M{"$set": set})
	return err
}

// SubsClearLegacyOverrides removes retired override fields from the matching
// membership array element.
func (a *adapter) SubsClearLegacyOverrides(username string, kind t.MembershipKind, ident string) error {
	s := schemas[kind]
	_, err := a.db.Collection("users").UpdateMany(a.ctx,
		b.M{"username": username, s.userField + "." + s.identField: ident},
		b.M{"$unset": b.M{
			s.userField + ".$.grants": "",
			s.userField + ".$.vetos":  "",
		}})
	return err
}

// ==================== Activities ================================

// ActivityInsert saves an activity document.
func (a *adapter) ActivityInsert(kind t.MembershipKind, act *t.Activity) error {
	s := schemas[kind]
	_, err := a.db.Collection(s.activities).InsertOne(a.ctx, act)
	return err
}

// ActivitiesUpdateContext applies a field-level update to the matching
// element of the contexts array of every activity referencing the identifier.
func (a *adapter) ActivitiesUpdateContext(kind t.MembershipKind, ident string, update map[string]interface{}) error {
	s := schemas[kind]
	set := b.M{}
	for field, value := range normalizeUpdate(update) {
		set["contexts.$."+field] = value
	}
	_, err := a.db.Collection(s.activities).UpdateMany(a.ctx,
		b.M{"contexts." + s.identField: ident},
		b.M{"$set": set})
	return err
}

// ActivitiesRetargetActor rewrites the object url/hash of activities whose
// actor is the given user and whose object still points at the old URL.
func (a *adapter) ActivitiesRetargetActor(username, oldURL, newURL, newHash string) error {
	_, err := a.db.Collection("activity").UpdateMany(a.ctx,
		b.M{"actor.username": username, "object.url": oldURL},
		b.M{"$set": b.M{
			"object.url":  newURL,
			"object.hash": newHash,
		}})
	return err
}

// ActivitiesRemove deletes all activities referencing the identifier. With
// soft=true the documents are only marked deleted.
func (a *adapter) ActivitiesRemove(kind t.MembershipKind, ident string, soft bool) error {
	s := schemas[kind]
	filter := b.M{"contexts." + s.identField: ident}
	var err error
	if soft {
		_, err = a.db.Collection(s.activities).UpdateMany(a.ctx, filter,
			b.M{"$set": b.M{"deleted": true, "deletedAt": t.TimeNow()}})
	} else {
		_, err = a.db.Collection(s.activities).DeleteMany(a.ctx, filter)
	}
	return err
}

// normalizeUpdate drops empty-string keys which could clobber whole documents.
func normalizeUpdate(update map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(update))
	for field, value := range update {
		if field == "" {
			continue
		}
		normalized[field] = value
	}
	return normalized
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	var wErr mdb.WriteException
	if errors.As(err, &wErr) {
		for _, we := range wErr.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// GetAdapter returns the adapter instance, for tests.
func GetAdapter() adp.Adapter {
	return instance
}

var instance = &adapter{}

func init() {
	store.RegisterAdapter(instance)
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/credentio/credential-system/internal/core/domain"
	"github.com/credentio/credential-system/internal/core/ports"
)

const (
	accountCollection = "accounts"
	counterCollection = "counters"
	accountCounterID  = "account_id"
)

// Store is the durable AccountStore backed by MongoDB. Single-document
// updates give the per-record atomicity the contract requires; numeric ids
// come from a counters collection so GetByID keeps one signature across
// backends.
type Store struct {
	accounts *mongo.Collection
	counters *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		accounts: db.Collection(accountCollection),
		counters: db.Collection(counterCollection),
	}
}

// EnsureIndexes creates the unique indexes on username and email. The email
// index is sparse so accounts without an email do not collide.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

type accountDoc struct {
	ID                  int64      `bson:"_id"`
	Username            string     `bson:"username"`
	PasswordHash        string     `bson:"password_hash"`
	Salt                string     `bson:"salt"`
	Email               *string    `bson:"email,omitempty"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
	LastLogin           *time.Time `bson:"last_login,omitempty"`
	IsActive            bool       `bson:"is_active"`
	FailedLoginAttempts int        `bson:"failed_login_attempts"`
	LockedUntil         *time.Time `bson:"account_locked_until,omitempty"`
}

func toDoc(a *domain.Account, id int64) accountDoc {
	doc := accountDoc{
		ID:                  id,
		Username:            a.Username,
		PasswordHash:        a.PasswordHash,
		Salt:                a.Salt,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
		LastLogin:           a.LastLogin,
		IsActive:            a.IsActive,
		FailedLoginAttempts: a.FailedLoginAttempts,
		LockedUntil:         a.LockedUntil,
	}
	if a.Email != "" {
		email := a.Email
		doc.Email = &email
	}
	return doc
}

func (d accountDoc) toDomain() *domain.Account {
	a := &domain.Account{
		ID:                  d.ID,
		Username:            d.Username,
		PasswordHash:        d.PasswordHash,
		Salt:                d.Salt,
		CreatedAt:           d.CreatedAt.UTC(),
		UpdatedAt:           d.UpdatedAt.UTC(),
		IsActive:            d.IsActive,
		FailedLoginAttempts: d.FailedLoginAttempts,
	}
	if d.Email != nil {
		a.Email = *d.Email
	}
	if d.LastLogin != nil {
		t := d.LastLogin.UTC()
		a.LastLogin = &t
	}
	if d.LockedUntil != nil {
		t := d.LockedUntil.UTC()
		a.LockedUntil = &t
	}
	return a
}

// nextID atomically allocates the next numeric account id.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": accountCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate account id: %w", err)
	}
	return counter.Seq, nil
}

func (s *Store) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.InsertOne(ctx, toDoc(account, id)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	created.ID = id
	return &created, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := s.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	n, err := s.accounts.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Update(ctx context.Context, username string, upd domain.AccountUpdate) error {
	if upd.IsZero() {
		exists, err := s.Exists(ctx, username)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrUserNotFound
		}
		return nil
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if upd.Email != nil {
		if *upd.Email == "" {
			unset["email"] = ""
		} else {
			set["email"] = *upd.Email
		}
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}
	if upd.Salt != nil {
		set["salt"] = *upd.Salt
	}
	if upd.LockedUntil != nil {
		set["account_locked_until"] = *upd.LockedUntil
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.accounts.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, username string) error {
	res, err := s.accounts.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"password_hash": 0, "salt": 0})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.accounts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	profiles := make([]*domain.Profile, 0)
	for cur.Next(ctx) {
		var doc accountDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		profiles = append(profiles, domain.ProfileOf(doc.toDomain()))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return profiles, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.accounts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func (s *Store) IncrementFailedLogins(ctx context.Context, username string) (int, error) {
	var doc accountDoc
	err := s.accounts.FindOneAndUpdate(ctx,
		bson.M{"username": username},
		bson.M{"$inc": bson.M{"failed_login_attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("increment failed logins: %w", err)
	}
	return doc.FailedLoginAttempts, nil
}

func (s *Store) ResetFailedLogins(ctx context.Context, username string, lastLogin time.Time) error {
	res, err := s.accounts.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$set":   bson.M{"failed_login_attempts": 0, "last_login": lastLogin},
			"$unset": bson.M{"account_locked_until": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("reset failed logins: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ ports.AccountStore = (*Store)(nil)

// Package seed fills a database with demo users, groups, posts, comments and
// follows. It is meant for development and tests only.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "password123"

//go:embed groups.yml
var groupsFixture []byte

// GroupFixture is one entry of groups.yml.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// Options controls how much data Run creates.
type Options struct {
	Users           int
	Posts           int
	CommentsPerPost int
	FollowsPerUser  int
	// MaxDays spreads post dates over the last MaxDays days.
	MaxDays int
	Clean   bool
	// Seed makes the generated content reproducible when non-zero.
	Seed     int64
	HashCost int
}

// DefaultOptions mirrors the flags of cmd/seed.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		Posts:           200,
		CommentsPerPost: 3,
		FollowsPerUser:  5,
		MaxDays:         90,
		Clean:           true,
		HashCost:        bcrypt.DefaultCost,
	}
}

// Summary counts what a Run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder writes demo data through a GORM handle.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSeeder binds a seeder to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(0), now: time.Now}
}

// LoadGroups parses the embedded group fixture.
func LoadGroups() ([]GroupFixture, error) {
	var doc struct {
		Groups []GroupFixture `yaml:"groups"`
	}
	if err := yaml.Unmarshal(groupsFixture, &doc); err != nil {
		return nil, fmt.Errorf("parse groups fixture: %w", err)
	}
	for i, g := range doc.Groups {
		if strings.TrimSpace(g.Slug) == "" || strings.TrimSpace(g.Title) == "" {
			return nil, fmt.Errorf("groups fixture entry %d: title and slug are required", i)
		}
	}
	return doc.Groups, nil
}

// Run creates a full demo dataset and reports what it wrote.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Seed != 0 {
		s.faker = gofakeit.New(opts.Seed)
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	if opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	groups, err := s.SeedGroups(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.SeedUsers(ctx, opts.Users, opts.HashCost)
	if err != nil {
		return nil, err
	}
	posts, err := s.SeedPosts(ctx, users, groups, opts.Posts, opts.MaxDays)
	if err != nil {
		return nil, err
	}
	comments, err := s.SeedComments(ctx, users, posts, opts.CommentsPerPost)
	if err != nil {
		return nil, err
	}
	follows, err := s.SeedFollows(ctx, users, opts.FollowsPerUser)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Users:    len(users),
		Groups:   len(groups),
		Posts:    len(posts),
		Comments: comments,
		Follows:  follows,
	}
	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("groups", summary.Groups),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments),
		slog.Int("follows", summary.Follows),
	)
	return summary, nil
}

// ClearAll deletes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{
		&models.Follow{},
		&models.Comment{},
		&models.Post{},
		&models.Group{},
		&models.User{},
	} {
		if err := db.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// SeedGroups creates the fixture groups whose slug is not taken yet.
func (s *Seeder) SeedGroups(ctx context.Context) ([]models.Group, error) {
	fixtures, err := LoadGroups()
	if err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(fixtures))
	for _, f := range fixtures {
		g := models.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}
		if err := s.db.WithContext(ctx).Where(models.Group{Slug: f.Slug}).FirstOrCreate(&g).Error; err != nil {
			return nil, fmt.Errorf("seed group %s: %w", f.Slug, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// SeedUsers creates n users sharing DefaultPassword.
func (s *Seeder) SeedUsers(ctx context.Context, n, cost int) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		username := s.username(i)
		users = append(users, models.User{
			Username: username,
			Email:    strings.ToLower(username) + "@" + s.faker.DomainName(),
			Password: string(hashed),
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return users, nil
}

// SeedPosts spreads n posts over users, filing about two thirds of them in a group.
func (s *Seeder) SeedPosts(ctx context.Context, users []models.User, groups []models.Group, n, maxDays int) ([]models.Post, error) {
	if n <= 0 || len(users) == 0 {
		return nil, nil
	}
	end := s.now()
	start := end.AddDate(0, 0, -maxDays)

	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := models.Post{
			Text:      s.faker.Paragraph(1, s.faker.Number(1, 4), 12, "\n"),
			AuthorID:  users[s.faker.Number(0, len(users)-1)].ID,
			CreatedAt: s.faker.DateRange(start, end),
		}
		if len(groups) > 0 && s.faker.Number(0, 2) > 0 {
			id := groups[s.faker.Number(0, len(groups)-1)].ID
			p.GroupID = &id
		}
		posts = append(posts, p)
	}
	if err := s.db.WithContext(ctx).Omit("Author", "Group").CreateInBatches(&posts, 100).Error; err != nil {
		return nil, fmt.Errorf("seed posts: %w", err)
	}
	return posts, nil
}

// SeedComments adds up to perPost comments to every post, each dated after its post.
func (s *Seeder) SeedComments(ctx context.Context, users []models.User, posts []models.Post, perPost int) (int, error) {
	if perPost <= 0 || len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}
	var comments []models.Comment
	for _, p := range posts {
		for i := s.faker.Number(0, perPost); i > 0; i-- {
			comments = append(comments, models.Comment{
				Text:      s.faker.Sentence(s.faker.Number(3, 15)),
				AuthorID:  users[s.faker.Number(0, len(users)-1)].ID,
				PostID:    p.ID,
				CreatedAt: p.CreatedAt.Add(time.Duration(s.faker.Number(1, 72*60)) * time.Minute),
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).Omit("Author", "Post").CreateInBatches(&comments, 200).Error; err != nil {
		return 0, fmt.Errorf("seed comments: %w", err)
	}
	return len(comments), nil
}

// SeedFollows makes each user follow up to perUser distinct other users.
func (s *Seeder) SeedFollows(ctx context.Context, users []models.User, perUser int) (int, error) {
	if perUser <= 0 || len(users) < 2 {
		return 0, nil
	}
	if perUser > len(users)-1 {
		perUser = len(users) - 1
	}

	var follows []models.Follow
	for _, u := range users {
		seen := map[uint]bool{u.ID: true}
		for len(seen) <= perUser {
			author := users[s.faker.Number(0, len(users)-1)]
			if seen[author.ID] {
				continue
			}
			seen[author.ID] = true
			follows = append(follows, models.Follow{UserID: u.ID, AuthorID: author.ID})
		}
	}
	if err := s.db.WithContext(ctx).Omit("User", "Author").CreateInBatches(&follows, 200).Error; err != nil {
		return 0, fmt.Errorf("seed follows: %w", err)
	}
	return len(follows), nil
}

func (s *Seeder) username(i int) string {
	name := strings.ToLower(s.faker.Username())
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
	return fmt.Sprintf("%s_%d", name, i+1)
}

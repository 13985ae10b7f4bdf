package photoblog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a requested post or tag does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTagExists is returned when a tag name is already taken.
	ErrTagExists = errors.New("tag already exists")
	// ErrTagInUse is returned when deleting a tag still attached to posts.
	ErrTagInUse = errors.New("tag is still in use")
)

// Store wraps the relational database holding posts, images and tags.
type Store struct {
	db *gorm.DB
}

// NewStore opens the database described by cfg and migrates the schema.
func NewStore(cfg DatabaseConfig, l *zap.Logger) (*Store, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver != "postgres" {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY
		// between concurrent transactions.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.SetupJoinTable(&Post{}, "Tags", &PostTag{}); err != nil {
		return nil, fmt.Errorf("setup join table: %w", err)
	}
	if err := db.AutoMigrate(&Post{}, &Image{}, &Tag{}, &PostTag{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if l != nil {
		l.Debug("database ready", zap.String("driver", cfg.Driver))
	}
	return &Store{db: db}, nil
}

func openDialector(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("DATABASE_DSN is required for postgres")
		}
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "data/photoblog.db"
		}
		if dir := filepath.Dir(strings.TrimPrefix(dsn, "file:")); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
		}
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func withPostAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("images.id") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") })
}

// ListPosts returns posts ordered by date descending. If tag is non-empty,
// only posts carrying that tag (case-insensitive) are returned.
func (s *Store) ListPosts(ctx context.Context, tag string) ([]Post, error) {
	q := withPostAssociations(s.db.WithContext(ctx)).Order("posts.date DESC, posts.id DESC")
	if tag = normalizeTag(tag); tag != "" {
		tagged := s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("LOWER(tags.name) = ?", tag)
		q = q.Where("posts.id IN (?)", tagged)
	}
	posts := []Post{}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost returns a single post with its images and tags.
func (s *Store) GetPost(ctx context.Context, id uint) (Post, error) {
	return getPost(s.db.WithContext(ctx), id)
}

func getPost(tx *gorm.DB, id uint) (Post, error) {
	var p Post
	if err := withPostAssociations(tx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

// CreatePost inserts a post with its images and tags in one transaction.
// Unknown tag names are created.
func (s *Store) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	var out Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := Post{Title: in.Title, Description: in.Description, Notes: in.Notes, Date: in.Date}
		if err := tx.Omit("Images", "Tags").Create(&p).Error; err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if err := insertImages(tx, p.ID, in.Images); err != nil {
			return err
		}
		if err := replaceTags(tx, p.ID, in.Tags); err != nil {
			return err
		}
		var err error
		out, err = getPost(tx, p.ID)
		return err
	})
	return out, err
}

// UpdatePost overwrites a post's fields, replaces its tag set and syncs its
// images: listed images with an id are updated, new ones inserted and
// unlisted ones deleted. All of it commits or none of it does.
func (s *Store) UpdatePost(ctx context.Context, id uint, in PostInput) (Post, error) {
	var out Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Post
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load post %d: %w", id, err)
		}
		err := tx.Model(&p).
			Select("Title", "Description", "Notes", "Date", "UpdatedAt").
			Updates(Post{Title: in.Title, Description: in.Description, Notes: in.Notes, Date: in.Date}).Error
		if err != nil {
			return fmt.Errorf("update post %d: %w", id, err)
		}
		if err := syncImages(tx, id, in.Images); err != nil {
			return err
		}
		if err := replaceTags(tx, id, in.Tags); err != nil {
			return err
		}
		out, err = getPost(tx, id)
		return err
	})
	return out, err
}

// DeletePost removes a post together with its images and tag links.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&Image{}).Error; err != nil {
			return fmt.Errorf("delete images of post %d: %w", id, err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&PostTag{}).Error; err != nil {
			return fmt.Errorf("delete tags of post %d: %w", id, err)
		}
		res := tx.Delete(&Post{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete post %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func imageFromInput(postID uint, in ImageInput) Image {
	return Image{
		PostID:         postID,
		URL:            in.URL,
		Alt:            in.Alt,
		Width:          in.Width,
		Height:         in.Height,
		TimestampTaken: in.TimestampTaken,
	}
}

func insertImages(tx *gorm.DB, postID uint, inputs []ImageInput) error {
	if len(inputs) == 0 {
		return nil
	}
	images := make([]Image, len(inputs))
	for i, in := range inputs {
		images[i] = imageFromInput(postID, in)
	}
	if err := tx.Create(&images).Error; err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	return nil
}

func syncImages(tx *gorm.DB, postID uint, inputs []ImageInput) error {
	var existing []Image
	if err := tx.Where("post_id = ?", postID).Find(&existing).Error; err != nil {
		return fmt.Errorf("load images of post %d: %w", postID, err)
	}
	owned := make(map[uint]bool, len(existing))
	for _, img := range existing {
		owned[img.ID] = true
	}

	keep := make(map[uint]bool, len(inputs))
	var fresh []ImageInput
	for _, in := range inputs {
		if in.ID == nil || !owned[*in.ID] || keep[*in.ID] {
			fresh = append(fresh, in)
			continue
		}
		keep[*in.ID] = true
		img := imageFromInput(postID, in)
		err := tx.Model(&Image{ID: *in.ID}).
			Select("URL", "Alt", "Width", "Height", "TimestampTaken").
			Updates(img).Error
		if err != nil {
			return fmt.Errorf("update image %d: %w", *in.ID, err)
		}
	}

	var drop []uint
	for _, img := range existing {
		if !keep[img.ID] {
			drop = append(drop, img.ID)
		}
	}
	if len(drop) > 0 {
		if err := tx.Delete(&Image{}, drop).Error; err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
	}
	return insertImages(tx, postID, fresh)
}

// replaceTags deletes every tag link of the post and links names instead,
// creating tags that do not exist yet.
func replaceTags(tx *gorm.DB, postID uint, names []string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&PostTag{}).Error; err != nil {
		return fmt.Errorf("clear tags of post %d: %w", postID, err)
	}
	if len(names) == 0 {
		return nil
	}
	links := make([]PostTag, 0, len(names))
	seen := make(map[uint]bool, len(names))
	for _, name := range names {
		tag, err := findOrCreateTag(tx, name)
		if err != nil {
			return err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		links = append(links, PostTag{PostID: postID, TagID: tag.ID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link tags to post %d: %w", postID, err)
	}
	return nil
}

func findOrCreateTag(tx *gorm.DB, name string) (Tag, error) {
	var tag Tag
	err := tx.Where("LOWER(name) = ?", normalizeTag(name)).Take(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Tag{}, fmt.Errorf("find tag %q: %w", name, err)
	}
	tag = Tag{Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		return Tag{}, fmt.Errorf("create tag %q: %w", name, err)
	}
	return tag, nil
}

func tagsWithCounts(tx *gorm.DB) *gorm.DB {
	return tx.Model(&Tag{}).
		Select("tags.id, tags.name, COUNT(post_tags.post_id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id, tags.name")
}

// ListTags returns every tag with the number of posts using it, by name.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := tagsWithCounts(s.db.WithContext(ctx)).Order("tags.name").Scan(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one tag with its post count.
func (s *Store) GetTag(ctx context.Context, id uint) (Tag, error) {
	return getTag(s.db.WithContext(ctx), id)
}

func getTag(tx *gorm.DB, id uint) (Tag, error) {
	var tags []Tag
	if err := tagsWithCounts(tx).Where("tags.id = ?", id).Scan(&tags).Error; err != nil {
		return Tag{}, fmt.Errorf("get tag %d: %w", id, err)
	}
	if len(tags) == 0 {
		return Tag{}, ErrNotFound
	}
	return tags[0], nil
}

// tagNameTaken reports whether another tag already uses name, ignoring case.
func tagNameTaken(tx *gorm.DB, name string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&Tag{}).Where("LOWER(name) = ?", normalizeTag(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check tag name: %w", err)
	}
	return count > 0, nil
}

// isUniqueViolation reports whether err is a unique constraint failure.
// gorm translates postgres errors; the modernc driver's are inspected
// directly.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se *sqlitedrv.Error
	return errors.As(err, &se) &&
		(se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// insertTag creates tag. A concurrent insert of the same name that slipped
// past the existence check yields ErrTagExists.
func insertTag(tx *gorm.DB, tag *Tag) error {
	if err := tx.Create(tag).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrTagExists
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CreateTag adds a tag. A name already in use yields ErrTagExists.
func (s *Store) CreateTag(ctx context.Context, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	var out Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := tagNameTaken(tx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrTagExists
		}
		out = Tag{Name: name}
		return insertTag(tx, &out)
	})
	return out, err
}

// UpdateTag renames a tag. Renaming onto another tag's name yields ErrTagExists.
func (s *Store) UpdateTag(ctx context.Context, id uint, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	var out Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getTag(tx, id); err != nil {
			return err
		}
		taken, err := tagNameTaken(tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrTagExists
		}
		if err := tx.Model(&Tag{ID: id}).Update("name", name).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrTagExists
			}
			return fmt.Errorf("rename tag %d: %w", id, err)
		}
		out, err = getTag(tx, id)
		return err
	})
	return out, err
}

// DeleteTag removes a tag that no post uses. Tags in use yield ErrTagInUse.
func (s *Store) DeleteTag(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := getTag(tx, id)
		if err != nil {
			return err
		}
		if tag.PostCount > 0 {
			return ErrTagInUse
		}
		if err := tx.Delete(&Tag{}, id).Error; err != nil {
			return fmt.Errorf("delete tag %d: %w", id, err)
		}
		return nil
	})
}

// Package domain defines the persistence models for users, recipes,
// ingredients, tags, and the association rows that connect them. These types
// are mapped with GORM and form the core data layer of the recipe backend.
package domain

import "time"

// User represents a registered account. Passwords are stored as bcrypt hashes
// and never serialized.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Email / Username: unique across all users; username is additionally
//     pattern-validated at the service layer.
//   - FirstName / LastName: display names.
//   - Password: bcrypt hash (json-hidden).
//   - IsStaff: grants mutate/delete rights on any recipe.
type User struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex:ux_users_email"`
	Username  string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex:ux_users_username"`
	FirstName string    `json:"first_name" gorm:"type:varchar(150);not null"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(150);not null"`
	Password  string    `json:"-"          gorm:"type:varchar(128);not null"`
	IsStaff   bool      `json:"-"          gorm:"not null;default:false"`
	CreatedAt time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Tag is shared reference data used to categorize recipes. Tags have an
// independent lifecycle: deleting a recipe never deletes its tags.
type Tag struct {
	ID    uint   `json:"id"    gorm:"primaryKey"`
	Name  string `json:"name"  gorm:"type:varchar(200);not null;uniqueIndex:ux_tags_name"`
	Color string `json:"color" gorm:"type:varchar(7)"`
	Slug  string `json:"slug"  gorm:"type:varchar(200);uniqueIndex:ux_tags_slug"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Ingredient is shared reference data. Rows are intentionally not unique by
// name: the same name may appear with different measurement units.
type Ingredient struct {
	ID              uint   `json:"id"               gorm:"primaryKey"`
	Name            string `json:"name"             gorm:"type:varchar(200);not null;index:idx_ingredients_name"`
	MeasurementUnit string `json:"measurement_unit" gorm:"type:varchar(200);not null"`
}

// TableName returns the database table name for Ingredient.
func (Ingredient) TableName() string { return "ingredients" }

// Recipe is the central aggregate: owned by its author, categorized by a tag
// set, and composed of ingredient lines (Quantity rows). Deleting a recipe
// cascades into its quantities, favorites, and cart rows; tags survive because
// only the join rows are removed.
//
// Fields:
//   - AuthorID / Author: owning user (cascade on user deletion).
//   - Image: media-relative path of the stored image file.
//   - CookingTime: minutes, validated against the configured minimum.
//   - PubDate: publish timestamp, set once at creation; listing is newest-first.
type Recipe struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	Name        string    `json:"name"         gorm:"type:varchar(200);not null"`
	AuthorID    uint      `json:"-"            gorm:"not null;index:idx_recipes_author"`
	Image       string    `json:"image"        gorm:"type:varchar(255);not null"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null"`
	PubDate     time.Time `json:"-"            gorm:"autoCreateTime;index:idx_recipes_pub_date"`

	Author     User       `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tags       []Tag      `json:"-" gorm:"many2many:recipe_tags"`
	Quantities []Quantity `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// Quantity is one ingredient line of a recipe: a join row linking a recipe to
// an ingredient with an amount. The (recipe, ingredient) pair is not unique at
// the schema level; the service layer rejects duplicate ingredient ids within
// a single submission instead.
type Quantity struct {
	ID           uint `json:"id"     gorm:"primaryKey"`
	RecipeID     uint `json:"-"      gorm:"not null;index:idx_quantities_recipe"`
	IngredientID uint `json:"-"      gorm:"not null;index:idx_quantities_ingredient"`
	Amount       int  `json:"amount" gorm:"not null"`

	Recipe     Recipe     `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Quantity.
func (Quantity) TableName() string { return "quantities" }

// Favorite marks a recipe as bookmarked by a user. At most one row per
// (user, recipe) pair, enforced by a unique index so concurrent duplicate
// creates surface as a constraint violation rather than a second row.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-"  gorm:"not null;uniqueIndex:ux_favorites_user_recipe,priority:1"`
	RecipeID  uint      `json:"-"  gorm:"not null;uniqueIndex:ux_favorites_user_recipe,priority:2;index:idx_favorites_recipe"`
	CreatedAt time.Time `json:"-"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// Cart marks a recipe as queued for shopping-list aggregation by a user.
// Same uniqueness semantics as Favorite.
type Cart struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-"  gorm:"not null;uniqueIndex:ux_carts_user_recipe,priority:1"`
	RecipeID  uint      `json:"-"  gorm:"not null;uniqueIndex:ux_carts_user_recipe,priority:2;index:idx_carts_recipe"`
	CreatedAt time.Time `json:"-"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Cart.
func (Cart) TableName() string { return "carts" }

// Follow marks UserID as a subscriber of AuthorID's recipe feed. Self-follow
// is rejected at the service layer; duplicates are blocked by the unique index.
type Follow struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-"  gorm:"not null;uniqueIndex:ux_follows_user_author,priority:1"`
	AuthorID  uint      `json:"-"  gorm:"not null;uniqueIndex:ux_follows_user_author,priority:2;index:idx_follows_author"`
	CreatedAt time.Time `json:"-"`

	User   User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Follow.
func (Follow) TableName() string { return "follows" }

package models

// Tag is the GORM model for an icon-keyed label attached to Items
// (spec.md §3 "Tag"). (IconType, IconValue) is the unique natural key.
type Tag struct {
	ID        int32   `gorm:"primaryKey;autoIncrement"`
	IconType  string  `gorm:"type:varchar(8);not null;uniqueIndex:idx_tags_icon"`
	IconValue string  `gorm:"type:text;not null;uniqueIndex:idx_tags_icon"`
	Label     *string `gorm:"type:text"`
	AssetURL  *string `gorm:"type:text"`
	AssetMime *string `gorm:"type:varchar(64)"`
}

func (Tag) TableName() string { return "tags" }

package keepsake

import "time"

// Record carries the fields every stored item shares. Concrete record types
// embed it.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Meta returns the embedded Record so generic code can reach id and
// timestamps of any record type.
func (r *Record) Meta() *Record { return r }

// Fields is a partial update: top-level JSON field name to new value.
type Fields map[string]any

// PhotoData describes the uploaded image of a PhotoAnalysis.
type PhotoData struct {
	Name       string    `json:"name,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Type       string    `json:"type,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	UploadTime time.Time `json:"uploadTime,omitzero"`
}

// PhotoStats is the derived summary of a photo's answers.
type PhotoStats struct {
	TotalQuestions    int    `json:"totalQuestions"`
	AnsweredQuestions int    `json:"answeredQuestions"`
	CompletionRate    int    `json:"completionRate"`
	MeaningfulAnswers int    `json:"meaningfulAnswers"`
	EmotionScore      int    `json:"emotionScore"`
	EmotionLevel      string `json:"emotionLevel"`
	ValueDensity      int    `json:"valueDensity"`
}

// PhotoAnalysis is one guided reflection on an uploaded photo.
// Answers is keyed by question id.
type PhotoAnalysis struct {
	Record
	Photo     string            `json:"photo,omitempty"`
	PhotoData *PhotoData        `json:"photoData,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
	Stats     *PhotoStats       `json:"stats,omitempty"`
	Status    string            `json:"status,omitempty"`
}

// CharacterExploration is one family-member profile exercise.
type CharacterExploration struct {
	Record
	CharacterName string   `json:"characterName,omitempty"`
	Relationship  string   `json:"relationship,omitempty"`
	Traits        []string `json:"traits,omitempty"`
	Story         string   `json:"story,omitempty"`
	Completed     bool     `json:"completed"`
}

// SkillHeritage is one recorded traditional skill.
type SkillHeritage struct {
	Record
	SkillName   string   `json:"skillName,omitempty"`
	Category    string   `json:"category,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Proficiency string   `json:"proficiency,omitempty"`
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	Completed   bool     `json:"completed"`
}

// Preferences are the display preferences carried by a UserProfile.
type Preferences struct {
	Theme         string `json:"theme,omitempty"`
	Language      string `json:"language,omitempty"`
	Notifications bool   `json:"notifications"`
}

// UserProfile is the singleton user identity.
type UserProfile struct {
	Record
	Name        string       `json:"name,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	Goal        string       `json:"goal,omitempty"`
	Level       int          `json:"level,omitempty"`
	Experience  int          `json:"experience,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Achievement is an unlocked badge. Its id is the badge id.
type Achievement struct {
	Record
	UnlockedAt time.Time `json:"unlockedAt,omitzero"`
	Unlocked   bool      `json:"unlocked"`
}

// Settings is the singleton preference bag. Boolean flags are always
// serialized, so saving a Settings value sets every flag explicitly.
type Settings struct {
	Record
	AutoSave          bool       `json:"autoSave"`
	AutoBackup        bool       `json:"autoBackup"`
	BackupReminder    bool       `json:"backupReminder"`
	DarkMode          bool       `json:"darkMode"`
	Theme             string     `json:"theme,omitempty"`
	ExportFormat      string     `json:"exportFormat,omitempty"`
	CompressData      bool       `json:"compressData"`
	DataRetentionDays int        `json:"dataRetentionDays,omitempty"`
	LastBackup        *time.Time `json:"lastBackup"`
	NextBackup        *time.Time `json:"nextBackup"`
}

// BackupType classifies an entry in the backup history.
type BackupType string

const (
	BackupInitial   BackupType = "initial"
	BackupManual    BackupType = "manual"
	BackupAuto      BackupType = "auto"
	BackupPreImport BackupType = "pre_import"
	BackupPreClear  BackupType = "pre_clear"
	BackupImport    BackupType = "import"
	BackupRestore   BackupType = "restore"
)

// BackupRecord is one entry of the backup/restore/import history. Data holds
// the serialized export document for snapshot entries and is empty for audit
// entries (import, restore, initial).
type BackupRecord struct {
	Record
	Type             BackupType     `json:"type"`
	Timestamp        time.Time      `json:"timestamp"`
	Data             string         `json:"data,omitempty"`
	Format           ExportFormat   `json:"format,omitempty"`
	Size             int64          `json:"size"`
	Note             string         `json:"note,omitempty"`
	ItemCount        map[string]int `json:"itemCount,omitempty"`
	SourceVersion    string         `json:"sourceVersion,omitempty"`
	RestoredBackupID string         `json:"restoredBackupId,omitempty"`
}

// Snapshot reports whether the entry carries a restorable payload.
func (b *BackupRecord) Snapshot() bool { return b.Data != "" }

// Reflection is one free-text journal entry.
type Reflection struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// Progress is the singleton exercise-progress record: completed exercise
// ids, per-ability progress percentages, earned badges and reflections.
type Progress struct {
	Record
	CompletedExercises []string       `json:"completedExercises"`
	AbilitiesProgress  map[string]int `json:"abilitiesProgress"`
	Badges             []string       `json:"badges"`
	Reflections        []Reflection   `json:"reflections"`
}

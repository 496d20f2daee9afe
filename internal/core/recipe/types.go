package recipe

import "sort"

// SchemaVersion 目前的食譜結構版本
const SchemaVersion = 1

// SourceKind 食譜來源
type SourceKind string

const (
	SourcePhoto  SourceKind = "photo"
	SourceImport SourceKind = "import"
	SourceManual SourceKind = "manual"
)

// Categories 主要分類，tags 的第一個值應為其中之一
var Categories = []string{"breakfast", "lunch", "dinner", "dessert", "snack", "beverage", "salad", "soup", "baking"}

// Ingredient 食材
type Ingredient struct {
	Qty   *float64 `json:"qty,omitempty"`
	Unit  string   `json:"unit,omitempty"`
	Item  string   `json:"item"`
	Notes string   `json:"notes,omitempty"`
}

// Step 步驟，Order 從 1 開始
type Step struct {
	Order       int      `json:"order"`
	Text        string   `json:"text"`
	TimeMinutes *float64 `json:"timeMinutes,omitempty"`
}

// Source 食譜來源
type Source struct {
	Kind SourceKind `json:"kind"`
	URI  string     `json:"uri,omitempty"`
}

// Nutrition 每份營養資訊
type Nutrition struct {
	Kcal     *float64 `json:"kcal,omitempty"`
	ProteinG *float64 `json:"proteinG,omitempty"`
	CarbsG   *float64 `json:"carbsG,omitempty"`
	FatG     *float64 `json:"fatG,omitempty"`
}

// Draft 尚未保存的食譜，沒有 id 與時間戳
type Draft struct {
	Title            string       `json:"title,omitempty"`
	Description      string       `json:"description,omitempty"`
	Servings         *float64     `json:"servings,omitempty"`
	TotalTimeMinutes *float64     `json:"totalTimeMinutes,omitempty"`
	Categories       []string     `json:"categories,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
	Ingredients      []Ingredient `json:"ingredients"`
	Steps            []Step       `json:"steps"`
	Source           *Source      `json:"source,omitempty"`
	Nutrition        *Nutrition   `json:"nutrition,omitempty"`
	ImageURI         string       `json:"imageUri,omitempty"`
	SchemaVersion    int          `json:"schemaVersion,omitempty"`
}

// Recipe 已保存的食譜
type Recipe struct {
	ID string `json:"id"`
	Draft
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Summary 列表用的精簡資料
type Summary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags,omitempty"`
	UpdatedAt int64    `json:"updatedAt"`
}

// PrimaryCategory 回傳第一個 tag，若不在分類清單內則回傳空字串
func (d *Draft) PrimaryCategory() string {
	if len(d.Tags) == 0 {
		return ""
	}
	for _, c := range Categories {
		if d.Tags[0] == c {
			return c
		}
	}
	return ""
}

// SortedSteps 依 order 排序後的步驟副本，相同 order 保持原順序
func (d *Draft) SortedSteps() []Step {
	steps := make([]Step, len(d.Steps))
	copy(steps, d.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

func (d *Draft) backfill() {
	if d.Ingredients == nil {
		d.Ingredients = []Ingredient{}
	}
	if d.Steps == nil {
		d.Steps = []Step{}
	}
}

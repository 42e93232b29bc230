package model

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// Question 小节内的测验题
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectAnswer interface{}  `json:"correctAnswer"` // 选择题为下标，判断题为 bool
	Icon          string       `json:"icon,omitempty"`
}

type Section struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	VideoURL     string     `json:"videoUrl"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	Duration     int        `json:"duration"` // 秒
	Questions    []Question `json:"questions"`
}

// Course 课程目录中的课程
// swagger:model Course
type Course struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"shortDescription"`
	ImageURL         string     `json:"imageUrl"`
	Sections         []Section  `json:"sections"`
	Difficulty       Difficulty `json:"difficulty"`
	EstimatedTime    string     `json:"estimatedTime"`
	PassingThreshold int        `json:"passingThreshold"` // 0-100
	Category         string     `json:"category"`
	Rating           *float64   `json:"rating,omitempty"`
	Tags             []string   `json:"tags"`
}

// SectionIDs 课程内小节的顺序 id 列表
func (c *Course) SectionIDs() []string {
	ids := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		ids[i] = s.ID
	}
	return ids
}

func (c *Course) HasSection(sectionID string) bool {
	for _, s := range c.Sections {
		if s.ID == sectionID {
			return true
		}
	}
	return false
}

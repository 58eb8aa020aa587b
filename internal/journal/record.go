package journal

import (
	"strings"
	"time"
)

// Records tab column headers. The header row of the tab decides which of
// these are written and in what order.
const (
	ColRecordID       = "기록ID"
	ColSavedAt        = "저장시각"
	ColActivityDate   = "활동날짜"
	ColStudentID      = "학번"
	ColAuthor         = "기록자"
	ColClass          = "반"
	ColGroup          = "모둠"
	ColPlant          = "재배식물"
	ColWeather        = "날씨"
	ColActivities     = "오늘활동"
	ColHeight         = "식물키(cm)"
	ColLeafCount      = "잎개수"
	ColObservation    = "관찰내용"
	ColGrowth         = "나의성장"
	ColPhotoLink      = "사진링크"
	ColTeacherComment = "교사댓글"
)

// Columns lists every record column in the order of a freshly created tab.
var Columns = []string{
	ColRecordID, ColSavedAt, ColActivityDate, ColStudentID, ColAuthor,
	ColClass, ColGroup, ColPlant, ColWeather, ColActivities, ColHeight,
	ColLeafCount, ColObservation, ColGrowth, ColPhotoLink, ColTeacherComment,
}

// Weathers are the selectable weather values.
var Weathers = []string{"☀️ 맑음", "⛅ 흐림", "🌧 비", "❄️ 눈", "🌬 바람"}

// Activities are the selectable garden tasks.
var Activities = []string{"물주기", "잡초제거", "관찰", "정리", "비료/퇴비", "기록정리", "기타"}

const (
	dateLayout     = "2006-01-02"
	savedAtLayout  = "2006-01-02 15:04:05"
	activitiesJoin = ", "
)

// Record is one submitted journal entry.
type Record struct {
	ID             string
	SavedAt        time.Time
	ActivityDate   string
	StudentID      string
	Author         string
	Class          string
	Group          string
	Plant          string
	Weather        string
	Activities     []string
	HeightCM       float64
	LeafCount      int
	Observation    string
	Growth         string
	PhotoLink      string
	TeacherComment string
}

// Values maps each column header to the cell value of the record.
// Height and leaf count stay numeric so the sheet stores them as numbers.
func (r Record) Values() map[string]interface{} {
	return map[string]interface{}{
		ColRecordID:       r.ID,
		ColSavedAt:        r.SavedAt.Format(savedAtLayout),
		ColActivityDate:   r.ActivityDate,
		ColStudentID:      r.StudentID,
		ColAuthor:         r.Author,
		ColClass:          r.Class,
		ColGroup:          r.Group,
		ColPlant:          r.Plant,
		ColWeather:        r.Weather,
		ColActivities:     strings.Join(r.Activities, activitiesJoin),
		ColHeight:         r.HeightCM,
		ColLeafCount:      r.LeafCount,
		ColObservation:    r.Observation,
		ColGrowth:         r.Growth,
		ColPhotoLink:      r.PhotoLink,
		ColTeacherComment: r.TeacherComment,
	}
}

// Row orders the record's values by header. Headers the record does not know become empty cells.
func (r Record) Row(header []string) []interface{} {
	values := r.Values()
	row := make([]interface{}, len(header))
	for i, h := range header {
		v, ok := values[h]
		if !ok {
			v = ""
		}
		row[i] = v
	}
	return row
}

// Summary is the listing view of a record.
type Summary struct {
	ActivityDate   string `json:"activity_date"`
	Author         string `json:"author_name"`
	Plant          string `json:"plant_name"`
	TeacherComment string `json:"teacher_comment"`
}

func summarize(values map[string]string) Summary {
	return Summary{
		ActivityDate:   values[ColActivityDate],
		Author:         values[ColAuthor],
		Plant:          values[ColPlant],
		TeacherComment: values[ColTeacherComment],
	}
}

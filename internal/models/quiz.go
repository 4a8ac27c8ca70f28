package models

type Question struct {
	ID            int      `json:"id" validate:"gte=1"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4,unique,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0,lte=3"`
}

type Quiz struct {
	Questions []Question `json:"questions" validate:"len=5,dive"`
}

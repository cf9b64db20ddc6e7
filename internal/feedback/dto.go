package feedback

import (
	errors "github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/common/validation"
)

const maxCommentLength = 2000

type CommentDTO struct {
	Comment string `json:"comment"`
}

type FeedbackListResponse struct {
	Feedback []*Feedback `json:"feedback"`
	Total    int         `json:"total"`
}

func (d CommentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("comment", d.Comment).Required().MaxLength(maxCommentLength)
	return v.Validate()
}

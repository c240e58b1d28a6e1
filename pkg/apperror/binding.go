package apperror

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FromBinding はリクエストボディのバインドエラーを入力エラーに変換する。
// validatorの項目エラーはJSON項目名と理由に展開する。
func FromBinding(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation("リクエストボディが不正です").WithCause(err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   toJSONName(fe.Field()),
			Message: fieldMessage(fe),
		})
	}

	message := "入力内容に誤りがあります"
	if allRequired(verrs) {
		message = "必須項目が不足しています"
	}
	return Validation(message, fields...).WithCause(err)
}

// fieldMessage はvalidatorのタグを利用者向けメッセージに変換する。
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です"
	case "email":
		return "メールアドレスの形式が不正です"
	case "min":
		return fe.Param() + "文字以上で入力してください"
	case "max":
		return fe.Param() + "文字以下で入力してください"
	case "url":
		return "URLの形式が不正です"
	default:
		return "値が不正です"
	}
}

func allRequired(verrs validator.ValidationErrors) bool {
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			return false
		}
	}
	return true
}

// toJSONName は構造体のフィールド名を先頭小文字のJSON項目名に変換する。
func toJSONName(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return strings.TrimSpace(string(r))
}

// UseJSONFieldNames はvalidatorが報告する項目名をjsonタグ名にする。
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

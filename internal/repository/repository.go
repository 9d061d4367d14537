package repository

import "errors"

// 見つからないを統一（gorm.ErrRecordNotFoundはinfra層で変換する）
var ErrNotFound = errors.New("not found")

// 一意制約違反
var ErrConflict = errors.New("conflict")

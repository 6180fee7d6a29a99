package repository

import "errors"

// 見つからないを統一（gorm.ErrRecordNotFoundは外に出さない）
var ErrNotFound = errors.New("not found")

// 読んだ後に他のTxが状態を変えた
var ErrConflict = errors.New("conflict")

// 在庫が足りない（行はある）
var ErrInsufficientStock = errors.New("insufficient stock")

// Package errors provides custom error types for cart and product operations.
package errors

import "errors"

var ErrCartNotFound = errors.New("cart not found")
var ErrProductNotFound = errors.New("product not found")

var ErrDuplicateProduct = errors.New("product is already present in the cart")
var ErrProductNotInCart = errors.New("product is not currently present in the cart")
var ErrOutOfStock = errors.New("product cannot be purchased since stock has run out")
var ErrEmptyTitle = errors.New("product title must not be empty")

var ErrOptimisticLock = errors.New("optimistic lock error: the record has been modified by another transaction")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")

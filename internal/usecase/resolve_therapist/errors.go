package resolve_therapist

import "errors"

var (
	// ErrInvalidInput возвращается при некорректном окне записи (endAt не позже startAt)
	ErrInvalidInput = errors.New("resolve_therapist: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("resolve_therapist: internal error")
)

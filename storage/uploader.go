package storage

import (
	"context"
)

// ArchiveUploader выгружает итоговые протоколы турниров в объектное
// хранилище и возвращает публичный адрес загруженного файла.
type ArchiveUploader interface {
	ArchiveResults(ctx context.Context, tournamentName string, summary []byte) (location string, err error)
}

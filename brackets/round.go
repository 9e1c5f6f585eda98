package brackets

import (
	"math/rand"

	"github.com/Dosada05/arena-tournaments/models"
)

// Pairing — одна позиция раунда: либо пара соперников, либо bye для
// непарного участника в хвосте списка.
type Pairing struct {
	P1    models.CompetitorRef
	P2    models.CompetitorRef
	IsBye bool
}

// Shuffle возвращает перемешанную копию списка участников. Вызывается один
// раз на старте турнира; последующие раунды составляются из победителей в
// порядке их матчей.
func Shuffle(rng *rand.Rand, participants []models.CompetitorRef) []models.CompetitorRef {
	shuffled := make([]models.CompetitorRef, len(participants))
	copy(shuffled, participants)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// PairRound разбивает упорядоченный список на пары (2i, 2i+1).
// Для нечётного числа участников последний получает bye и проходит в
// следующий раунд без матча. Всего позиций — ceil(n/2).
func PairRound(participants []models.CompetitorRef) []Pairing {
	n := len(participants)
	pairings := make([]Pairing, 0, (n+1)/2)

	for i := 0; i+1 < n; i += 2 {
		pairings = append(pairings, Pairing{
			P1: participants[i],
			P2: participants[i+1],
		})
	}
	if n%2 == 1 {
		pairings = append(pairings, Pairing{
			P1:    participants[n-1],
			IsBye: true,
		})
	}
	return pairings
}

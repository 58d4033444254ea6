package speech

import "math/rand/v2"

func shuffleVoices(v []Voice) {
	rand.Shuffle(len(v), func(i, j int) { v[i], v[j] = v[j], v[i] })
}

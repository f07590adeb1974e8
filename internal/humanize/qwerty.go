package humanize

// qwertyNeighbors maps each lowercase letter to its horizontal keyboard
// neighbors, used for typo substitution.
var qwertyNeighbors = map[rune][]rune{
	'a': {'q', 's'},
	'b': {'v', 'n'},
	'c': {'x', 'v'},
	'd': {'s', 'f'},
	'e': {'w', 'r'},
	'f': {'d', 'g'},
	'g': {'f', 'h'},
	'h': {'g', 'j'},
	'i': {'u', 'o'},
	'j': {'h', 'k'},
	'k': {'j', 'l'},
	'l': {'k'},
	'm': {'n'},
	'n': {'b', 'm'},
	'o': {'i', 'p'},
	'p': {'o'},
	'q': {'w', 'a'},
	'r': {'e', 't'},
	's': {'a', 'd'},
	't': {'r', 'y'},
	'u': {'y', 'i'},
	'v': {'c', 'b'},
	'w': {'q', 'e'},
	'x': {'z', 'c'},
	'y': {'t', 'u'},
	'z': {'x'},
}

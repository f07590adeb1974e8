package persona

// Fixed draw pools for persona generation. Changing a pool changes every
// persona derived from a seed, so these are append-only in practice.

var genders = []string{"female", "male", "nonbinary"}

var femaleNames = []string{"Mara", "Nina", "Sofia", "Lea", "Emma", "Mia", "Lena", "Hannah", "Emily", "Charlotte"}

var maleNames = []string{"Alex", "Luca", "Jonas", "Max", "Leon", "Paul", "Elias", "Noah", "Finn", "Ben"}

var nbNames = []string{"Sam", "Jules", "Robin", "Sascha", "Taylor", "Alexis", "Nico", "Charlie"}

var cities = []string{"Berlin", "Hamburg", "Köln", "München", "Leipzig", "Düsseldorf", "Stuttgart", "Dresden", "Frankfurt", "Bremen"}

var hometowns = []string{"Bochum", "Kassel", "Bielefeld", "Rostock", "Nürnberg", "Ulm", "Hannover", "Jena", "Augsburg", "Freiburg"}

var jobs = []string{
	"UX researcher", "barista", "front-end dev", "product manager", "physio", "photographer", "nurse",
	"data analyst", "teacher", "marketing lead", "warehouse operator", "student", "copywriter", "data engineer",
	"graphic designer", "social media manager", "HR coordinator", "architect", "chef", "mechanic", "pharmacist",
	"accountant", "video editor", "translator", "recruiter", "sales rep", "DevOps engineer", "legal assistant",
	"personal trainer", "event planner", "journalist", "librarian", "dental hygienist", "real estate agent",
}

var industries = []string{"tech", "healthcare", "education", "logistics", "finance", "retail", "media", "public sector", "hospitality"}

var employerTypes = []string{"startup", "agency", "corporate", "clinic", "public office", "freelance"}

var schedules = []string{"early riser", "standard 9–5", "night owl"}

var hobbies = []string{
	"bouldering", "running 5k", "cycling", "yoga", "reading thrillers", "console gaming", "football on Sundays",
	"cooking ramen", "photography", "cinema nights", "coffee nerd stuff", "hiking", "board games", "baking",
	"thrifting", "vinyl digging", "tennis", "swimming", "gardening", "sketching", "guitar practice",
	"podcasts", "chess online", "standup comedy", "language learning", "crossfit", "DJing", "coding side projects",
	"pottery classes", "rock climbing", "meal prep", "urban exploring", "film photography", "indie concerts",
	"trivia nights", "volunteering", "skateboarding", "boxing", "journaling", "fermenting", "origami",
	"mixology", "calligraphy", "astronomy",
}

var microTodays = []string{
	"spilled coffee earlier", "bike tire was flat", "friend's birthday later",
	"rushed morning standup", "gym after work", "meal prepping tonight", "laundry mountain waiting",
	"dentist appointment later", "package arriving today", "car needs inspection soon",
	"meeting ran overtime", "forgot lunch at home", "train was delayed", "found 5€ on street",
	"neighbor's dog was loud", "wifi went down earlier", "new episode dropped", "plants needed watering",
	"trying new recipe tonight", "sister called earlier", "lost earbuds somewhere", "ordered pizza for dinner",
	"finished book yesterday", "apartment viewing tomorrow", "team won last night", "haircut this weekend",
	"deadline approaching", "roommate left dishes", "forgot umbrella again", "keys were missing",
	"elevator broken today", "got text from ex", "need groceries badly", "ran into old friend",
	"phone battery dying", "coffee machine broke", "printer jammed again", "cat knocked over plant",
}

var musicTastes = []string{"indie", "electro", "hip hop", "pop", "rock", "lofi", "jazz", "techno", "folk", "r&b", "metal", "classical", "punk"}

var foods = []string{"ramen", "pasta", "tacos", "salads", "curry", "falafel", "pizza", "kumpir", "sushi", "dim sum", "pho", "burgers", "dumplings", "shawarma"}

var pets = []string{"cat", "dog", "no pets", "plants count", "fish tank", "bird", "thinking about getting one"}

var softOpinions = []string{
	"pineapple on pizza is fine", "meetings should be emails", "night buses are underrated",
	"sunny cold days > rainy warm ones", "decaf is a scam", "paper books > ebooks sometimes",
	"breakfast is overrated", "standing desks changed everything", "cold brew > espresso",
	"subtitle movies are better", "winter > summer", "cereal is a soup", "hot dogs are sandwiches",
	"GIFs are the best replies", "voice messages are annoying", "typing is faster than talking",
	"morning people are suspicious", "podcasts at 1.5x speed", "tabs > spaces", "light mode hurts",
	"cilantro tastes like soap", "mint chocolate is weird", "ketchup on fries is basic",
	"pumpkin spice is good", "comic sans isn't that bad", "NFTs make no sense",
	"dogs > cats obviously", "cats > dogs obviously", "remote work forever", "office has its perks",
}

var textingStyles = []string{
	"dry humor, concise", "warm tone, lowercase start", "short replies, occasional emoji",
	"light sarcasm, contractions", "enthusiastic, a bit bubbly", "matter-of-fact, chill",
	"thoughtful pauses", "playful teasing", "genuine curiosity", "understated wit",
	"casual philosophizing", "deadpan delivery", "expressive punctuation", "minimalist responses",
	"overthinking everything", "relaxed storyteller", "self-deprecating humor", "enthusiastic oversharer",
}

var slangSets = [][]string{{"lol", "haha"}, {"digga"}, {"bro"}, {"mate"}, {"bruh"}, {}}

var dialects = []string{"Standarddeutsch", "leichter Berliner Slang", "Kölsch-Note", "Hochdeutsch", "Denglisch", "English-first, understands German"}

var emojiBundles = [][]string{{}, {}, {}, {"🙂"}, {"😅"}, {"👍"}, {}}

var laughterOpts = []string{"lol", "haha", "", "", ""}

var vibesOpts = []string{"smart", "cool", "witty", "grounded", "curious", "chill"}

var fillerWordPool = []string{"tbh", "ngl", "eig.", "halt", "so", "like", "uh", "um"}

package cli

import (
	"trivia-duel-service/internal/domain"
	"trivia-duel-service/internal/infra/memory"
)

// samplePools provides built-in question pools so the server works without
// Postgres; swap the loader for the Postgres-backed one in production.
func samplePools() map[string][]domain.Question {
	mc := func(id, prompt, answer string, wrong ...string) domain.Question {
		return domain.Question{ID: id, Prompt: prompt, Options: append([]string{answer}, wrong...), Answer: answer}
	}
	fr := func(id, prompt string, accepted ...string) domain.Question {
		return domain.Question{ID: id, Prompt: prompt, Accepted: accepted}
	}

	return map[string][]domain.Question{
		memory.PoolKey(domain.ModeMultipleChoice, domain.DifficultyEasy): {
			mc("mce1", "What is 2 + 2?", "4", "3", "5"),
			mc("mce2", "What color is the sky on a clear day?", "Blue", "Green", "Red"),
			mc("mce3", "How many legs does a spider have?", "8", "6", "10"),
			mc("mce4", "What is the capital of France?", "Paris", "Lyon", "Marseille"),
			mc("mce5", "Which planet do we live on?", "Earth", "Mars", "Venus"),
			mc("mce6", "How many days are in a week?", "7", "5", "6"),
			mc("mce7", "What do bees make?", "Honey", "Milk", "Silk"),
			mc("mce8", "Which ocean is the largest?", "Pacific", "Atlantic", "Indian"),
			mc("mce9", "What is frozen water called?", "Ice", "Steam", "Dew"),
		},
		memory.PoolKey(domain.ModeMultipleChoice, domain.DifficultyMedium): {
			mc("mcm1", "Which element has the symbol Fe?", "Iron", "Fluorine", "Lead"),
			mc("mcm2", "In which year did World War II end?", "1945", "1939", "1948"),
			mc("mcm3", "What is the longest river in the world?", "Nile", "Amazon", "Yangtze"),
			mc("mcm4", "Who painted the Mona Lisa?", "Leonardo da Vinci", "Michelangelo", "Raphael"),
			mc("mcm5", "What is the square root of 144?", "12", "14", "16"),
			mc("mcm6", "Which country has the most time zones?", "France", "Russia", "USA"),
			mc("mcm7", "What gas do plants absorb from the air?", "Carbon dioxide", "Oxygen", "Nitrogen"),
			mc("mcm8", "Which instrument has 88 keys?", "Piano", "Organ", "Accordion"),
			mc("mcm9", "What is the currency of Japan?", "Yen", "Won", "Yuan"),
		},
		memory.PoolKey(domain.ModeMultipleChoice, domain.DifficultyHard): {
			mc("mch1", "What is the rarest naturally occurring element on Earth?", "Astatine", "Francium", "Technetium"),
			mc("mch2", "Which year was the first transatlantic telegraph cable completed?", "1858", "1844", "1871"),
			mc("mch3", "Who formulated the incompleteness theorems?", "Kurt Gödel", "David Hilbert", "Alan Turing"),
			mc("mch4", "What is the capital of Kyrgyzstan?", "Bishkek", "Tashkent", "Dushanbe"),
			mc("mch5", "Which composer wrote The Art of Fugue?", "Johann Sebastian Bach", "George Frideric Handel", "Antonio Vivaldi"),
			mc("mch6", "What is the half-life of carbon-14 (years)?", "5730", "1200", "11460"),
			mc("mch7", "Which treaty ended the Thirty Years' War?", "Peace of Westphalia", "Treaty of Utrecht", "Peace of Augsburg"),
			mc("mch8", "What is the deepest point of the ocean called?", "Challenger Deep", "Mariana Basin", "Tonga Deep"),
			mc("mch9", "Which language family does Hungarian belong to?", "Uralic", "Indo-European", "Turkic"),
		},
		memory.PoolKey(domain.ModeFreeResponse, domain.DifficultyEasy): {
			fr("fre1", "Name up to 8 colors of the rainbow.", "red", "orange", "yellow", "green", "blue", "indigo", "violet"),
			fr("fre2", "Name up to 8 days of the week.", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"),
			fr("fre3", "Name up to 8 common farm animals.", "cow", "pig", "sheep", "goat", "chicken", "horse", "duck", "donkey"),
			fr("fre4", "Name up to 8 fruits.", "apple", "banana", "orange", "grape", "pear", "peach", "mango", "cherry"),
			fr("fre5", "Name up to 8 planets of the solar system.", "mercury", "venus", "earth", "mars", "jupiter", "saturn", "uranus", "neptune"),
			fr("fre6", "Name up to 8 parts of the human body.", "head", "arm", "leg", "hand", "foot", "ear", "nose", "eye"),
			fr("fre7", "Name up to 8 things you find in a kitchen.", "fridge", "oven", "sink", "knife", "fork", "spoon", "plate", "pan"),
			fr("fre8", "Name up to 8 pets people commonly keep.", "dog", "cat", "fish", "bird", "hamster", "rabbit", "turtle", "lizard"),
			fr("fre9", "Name up to 8 seasons or weather types.", "spring", "summer", "autumn", "winter", "rain", "snow", "wind", "sun"),
		},
		memory.PoolKey(domain.ModeFreeResponse, domain.DifficultyMedium): {
			fr("frm1", "Name up to 8 European capital cities.", "paris", "london", "rome", "berlin", "madrid", "vienna", "prague", "lisbon"),
			fr("frm2", "Name up to 8 chemical elements.", "hydrogen", "helium", "oxygen", "carbon", "nitrogen", "iron", "gold", "silver"),
			fr("frm3", "Name up to 8 countries in South America.", "brazil", "argentina", "chile", "peru", "colombia", "ecuador", "uruguay", "bolivia"),
			fr("frm4", "Name up to 8 Greek letters.", "alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"),
			fr("frm5", "Name up to 8 bones of the human body.", "femur", "tibia", "fibula", "humerus", "radius", "ulna", "skull", "sternum"),
			fr("frm6", "Name up to 8 programming languages.", "go", "python", "java", "javascript", "rust", "ruby", "swift", "kotlin"),
			fr("frm7", "Name up to 8 Olympic sports.", "swimming", "athletics", "gymnastics", "rowing", "cycling", "fencing", "judo", "boxing"),
			fr("frm8", "Name up to 8 currencies of the world.", "dollar", "euro", "yen", "pound", "franc", "rupee", "won", "peso"),
			fr("frm9", "Name up to 8 instruments in an orchestra.", "violin", "viola", "cello", "flute", "oboe", "clarinet", "trumpet", "timpani"),
		},
		memory.PoolKey(domain.ModeFreeResponse, domain.DifficultyHard): {
			fr("frh1", "Name up to 8 moons of Jupiter.", "io", "europa", "ganymede", "callisto", "amalthea", "himalia", "elara", "thebe"),
			fr("frh2", "Name up to 8 Nobel laureates in Physics.", "einstein", "bohr", "curie", "feynman", "dirac", "planck", "fermi", "heisenberg"),
			fr("frh3", "Name up to 8 countries bordering China.", "russia", "india", "mongolia", "kazakhstan", "pakistan", "vietnam", "laos", "nepal"),
			fr("frh4", "Name up to 8 moons of Saturn.", "titan", "enceladus", "mimas", "rhea", "iapetus", "dione", "tethys", "hyperion"),
			fr("frh5", "Name up to 8 amino acids.", "glycine", "alanine", "valine", "leucine", "lysine", "serine", "proline", "cysteine"),
			fr("frh6", "Name up to 8 rivers longer than 3000 km.", "nile", "amazon", "yangtze", "mississippi", "yenisei", "ob", "congo", "lena"),
			fr("frh7", "Name up to 8 Byzantine emperors.", "justinian", "constantine", "heraclius", "basil", "theodosius", "leo", "alexios", "zeno"),
			fr("frh8", "Name up to 8 particles of the Standard Model.", "electron", "muon", "tau", "photon", "gluon", "higgs", "quark", "neutrino"),
			fr("frh9", "Name up to 8 deserts of the world.", "sahara", "gobi", "kalahari", "atacama", "mojave", "namib", "karakum", "thar"),
		},
	}
}

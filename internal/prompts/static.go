package prompts

// builtinPrompts is the deterministic fallback used when the external
// service fails, times out, or returns too few usable prompts.
var builtinPrompts = []string{
	"The worst possible name for a pet goldfish: ____",
	"The one thing you should never say at a funeral: ____",
	"A rejected flavor of sparkling water: ____",
	"The secret ingredient in grandma's famous stew: ____",
	"The real reason the dinosaurs went extinct: ____",
	"A terrible slogan for a dentist's office: ____",
	"What the moon landing crew actually found up there: ____",
	"The least popular exhibit at the wax museum: ____",
	"A surprising item to find in a knight's backpack: ____",
	"The title of the world's most boring bestseller: ____",
	"What robots dream about when they power down: ____",
	"The next big fitness craze: ____",
	"A questionable perk listed in a job posting: ____",
	"The real contents of Area 51: ____",
}

// fallbackAnswers are canned synthetic answers used when answer generation
// fails or times out.
var fallbackAnswers = []string{
	"a suspicious amount of cheese",
	"my uncle's accordion",
	"regret, mostly",
	"three raccoons in a trench coat",
	"the thing we don't talk about",
	"leftover meatloaf",
	"an ominous humming sound",
	"whatever was on sale",
}

// Builtin returns a copy of the fallback prompt set.
func Builtin() []string {
	out := make([]string, len(builtinPrompts))
	copy(out, builtinPrompts)
	return out
}

// FallbackAnswer returns a deterministic canned answer for the given seed.
func FallbackAnswer(seed int) string {
	if seed < 0 {
		seed = -seed
	}
	return fallbackAnswers[seed%len(fallbackAnswers)]
}

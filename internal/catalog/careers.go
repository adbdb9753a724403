package catalog

// Default returns the built-in career catalog so the server can run without
// an external content file.
func Default() *Catalog {
	c, _ := New(defaultCareers)
	return c
}

var defaultCareers = []Entity{
	{Code: "astronaut", Title: "Astronaut", Prompt: "I train for years to work where there is no up or down."},
	{Code: "architect", Title: "Architect", Prompt: "I draw buildings long before anyone can walk inside them."},
	{Code: "baker", Title: "Baker", Prompt: "My workday starts before sunrise and smells like fresh bread."},
	{Code: "biologist", Title: "Biologist", Prompt: "I study living things, from whales down to single cells."},
	{Code: "carpenter", Title: "Carpenter", Prompt: "I measure twice and cut once, mostly in wood."},
	{Code: "chef", Title: "Chef", Prompt: "I run a kitchen brigade and taste everything twice."},
	{Code: "chemist", Title: "Chemist", Prompt: "I mix compounds and read reactions other people can't see."},
	{Code: "coach", Title: "Coach", Prompt: "I plan drills, call timeouts, and shout encouragement."},
	{Code: "dentist", Title: "Dentist", Prompt: "People open wide when they visit my chair."},
	{Code: "detective", Title: "Detective", Prompt: "I follow clues that other people walk right past."},
	{Code: "electrician", Title: "Electrician", Prompt: "I make sure the lights come on when you flip the switch."},
	{Code: "engineer", Title: "Engineer", Prompt: "I turn math and materials into bridges and machines."},
	{Code: "farmer", Title: "Farmer", Prompt: "My office has rows, seasons, and the occasional tractor."},
	{Code: "firefighter", Title: "Firefighter", Prompt: "I run toward the thing everyone else runs away from."},
	{Code: "florist", Title: "Florist", Prompt: "I arrange color and fragrance into something you can carry."},
	{Code: "geologist", Title: "Geologist", Prompt: "I read the history of the planet in layers of rock."},
	{Code: "journalist", Title: "Journalist", Prompt: "I ask questions for a living and write the answers down."},
	{Code: "judge", Title: "Judge", Prompt: "My gavel ends arguments that lawyers start."},
	{Code: "librarian", Title: "Librarian", Prompt: "I can find any story in the building, usually by number."},
	{Code: "lifeguard", Title: "Lifeguard", Prompt: "I watch the water so everyone else can enjoy it."},
	{Code: "mechanic", Title: "Mechanic", Prompt: "I listen to engines the way doctors listen to hearts."},
	{Code: "musician", Title: "Musician", Prompt: "My workday is measured in beats per minute."},
	{Code: "nurse", Title: "Nurse", Prompt: "I am usually the first and last person patients see."},
	{Code: "optometrist", Title: "Optometrist", Prompt: "Better one, or better two?"},
	{Code: "paramedic", Title: "Paramedic", Prompt: "My office has sirens and moves very fast."},
	{Code: "pharmacist", Title: "Pharmacist", Prompt: "I count, label, and explain what the doctor ordered."},
	{Code: "photographer", Title: "Photographer", Prompt: "I freeze moments that last a fraction of a second."},
	{Code: "pilot", Title: "Pilot", Prompt: "My office window is thirty thousand feet up."},
	{Code: "plumber", Title: "Plumber", Prompt: "When water goes where it shouldn't, I get the call."},
	{Code: "professor", Title: "Professor", Prompt: "I give lectures, grade papers, and chase grants."},
	{Code: "programmer", Title: "Programmer", Prompt: "I talk to computers in languages most people can't read."},
	{Code: "ranger", Title: "Park Ranger", Prompt: "My office has trails, wildlife, and no ceiling."},
	{Code: "sailor", Title: "Sailor", Prompt: "I read wind and water instead of road signs."},
	{Code: "scientist", Title: "Scientist", Prompt: "I form hypotheses and then try hard to break them."},
	{Code: "surgeon", Title: "Surgeon", Prompt: "My workplace is sterile and my hands must not shake."},
	{Code: "tailor", Title: "Tailor", Prompt: "I make clothes fit people instead of hangers."},
	{Code: "teacher", Title: "Teacher", Prompt: "I shape minds five days a week, with summers off."},
	{Code: "translator", Title: "Translator", Prompt: "I carry meaning from one language to another."},
	{Code: "vet", Title: "Veterinarian", Prompt: "My patients can't tell me where it hurts."},
	{Code: "zoologist", Title: "Zoologist", Prompt: "I study animals, sometimes from uncomfortably close."},
}

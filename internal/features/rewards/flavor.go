package rewards

// Jobs — профессии для /work.
var Jobs = []string{
	"barista",
	"pizza delivery driver",
	"software tester",
	"dog walker",
	"street musician",
	"librarian",
	"game streamer",
	"gardener",
	"taxi driver",
	"freelance artist",
}

// CrimeSuccess — тексты удачного /crime.
var CrimeSuccess = []string{
	"You pickpocketed a distracted tourist",
	"You sold counterfeit concert tickets",
	"You hacked a vending machine",
	"You won a rigged card game",
	"You smuggled snacks into the cinema and resold them",
}

// CrimeFailure — тексты неудачного /crime.
var CrimeFailure = []string{
	"You got caught shoplifting and paid a fine",
	"The police spotted you jaywalking",
	"Your getaway car wouldn't start",
	"You tripped the alarm and had to bribe the guard",
	"A security camera recognised you",
}

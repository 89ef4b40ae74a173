package assessment

import (
	"context"
	"log"
)

var seedQuestions = []Question{
	{Phase: PhasePre, Prompt: "A physical change is a change that...", Choices: Choices{"Alters the composition of a substance", "Produces no new substance", "Produces a new substance", "Alters chemical properties"}, Answer: "b"},
	{Phase: PhasePre, Prompt: "At what temperature does water boil at standard pressure?", Choices: Choices{"90°C", "95°C", "100°C", "110°C"}, Answer: "c"},
	{Phase: PhasePre, Prompt: "A material that conducts electricity is called...", Choices: Choices{"Insulator", "Conductor", "Semiconductor", "Dielectric"}, Answer: "b"},
	{Phase: PhasePre, Prompt: "Photosynthesis produces...", Choices: Choices{"CO2 and H2O", "O2 and glucose", "CO2 and glucose", "H2O and O2"}, Answer: "b"},
	{Phase: PhasePre, Prompt: "Newton's first law states that...", Choices: Choices{"F = ma", "An object at rest stays at rest unless acted on by a force", "Action equals reaction", "Force is proportional to mass"}, Answer: "b"},

	{Phase: PhasePost, Prompt: "A chemical reaction that releases heat is called...", Choices: Choices{"Endothermic", "Exothermic", "Redox", "Neutralization"}, Answer: "b"},
	{Phase: PhasePost, Prompt: "How many valence electrons does an oxygen atom have?", Choices: Choices{"2", "4", "6", "8"}, Answer: "c"},
	{Phase: PhasePost, Prompt: "Separating a mixture by differences in boiling point is called...", Choices: Choices{"Filtration", "Crystallization", "Distillation", "Sublimation"}, Answer: "c"},
	{Phase: PhasePost, Prompt: "DNA is built from monomers called...", Choices: Choices{"Amino acids", "Nucleotides", "Glucose", "Lipids"}, Answer: "b"},
	{Phase: PhasePost, Prompt: "A voltaic cell converts ... energy into ... energy.", Choices: Choices{"Electrical to chemical", "Chemical to electrical", "Mechanical to electrical", "Heat to electrical"}, Answer: "b"},
}

var seedMaterials = []MaterialItem{
	{Title: "Introduction to Chemistry", Type: MaterialVideo, Content: "https://www.youtube.com/embed/uVFCOfSuPTo", Description: "Introductory video on the basics of chemistry."},
	{Title: "Atomic Structure and the Periodic Table", Type: MaterialText, Content: `<h3>Atomic Structure</h3>
<p>Atoms are made of <strong>protons</strong>, <strong>neutrons</strong> and <strong>electrons</strong>. Protons carry a positive charge, neutrons are neutral and electrons carry a negative charge.</p>
<h4>Atomic Number and Mass Number</h4>
<ul>
<li><strong>Atomic number (Z)</strong> = number of protons in the nucleus</li>
<li><strong>Mass number (A)</strong> = protons + neutrons</li>
</ul>
<h3>The Periodic Table</h3>
<p>Elements are ordered by increasing atomic number. Elements in the same group share the same number of valence electrons; elements in the same period share the same number of shells.</p>`, Description: "Atomic structure and the periodic table of elements."},
	{Title: "Podcast: Chemistry in Everyday Life", Type: MaterialAudio, Content: "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3", Description: "How chemistry shows up in daily life."},
}

// Seed fills an empty question bank and an empty material list with the
// demo course. It reports whether anything was written.
func Seed(ctx context.Context, c *Content) (bool, error) {
	wrote := false
	bank, err := c.QuestionBank(ctx)
	if err != nil {
		return false, err
	}
	if len(bank[PhasePre])+len(bank[PhasePost]) == 0 {
		for _, q := range seedQuestions {
			if _, err := c.AddQuestion(ctx, q); err != nil {
				return wrote, err
			}
		}
		wrote = true
	}
	ms, err := c.Materials(ctx)
	if err != nil {
		return wrote, err
	}
	if len(ms) == 0 {
		for _, m := range seedMaterials {
			if _, err := c.AddMaterial(ctx, m); err != nil {
				return wrote, err
			}
		}
		wrote = true
	}
	if wrote {
		log.Printf("[STARTUP] seeded demo questions and material")
	}
	return wrote, nil
}

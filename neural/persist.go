package neural

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
	"gopkg.in/yaml.v3"
)

// Population file layout. Genomes are flattened to plain node/gene records so
// the on-disk form has no dependency on goNEAT struct internals.

type populationDoc struct {
	CompatThreshold float64       `yaml:"compat_threshold"`
	OffspringCount  int           `yaml:"offspring_count"`
	Organisms       []organismDoc `yaml:"organisms"`
}

type organismDoc struct {
	Fitness   float64   `yaml:"fitness"`
	TimeAlive int       `yaml:"time_alive"`
	Smited    bool      `yaml:"smited,omitempty"`
	Genome    genomeDoc `yaml:"genome"`
}

type genomeDoc struct {
	ID    int       `yaml:"id"`
	Nodes []nodeDoc `yaml:"nodes"`
	Genes []geneDoc `yaml:"genes"`
}

type nodeDoc struct {
	ID         int `yaml:"id"`
	Neuron     int `yaml:"neuron"`
	Activation int `yaml:"activation"`
}

type geneDoc struct {
	In        int     `yaml:"in"`
	Out       int     `yaml:"out"`
	Weight    float64 `yaml:"weight"`
	Innov     int64   `yaml:"innov"`
	MutNum    float64 `yaml:"mut_num"`
	Enabled   bool    `yaml:"enabled"`
	Recurrent bool    `yaml:"recurrent,omitempty"`
}

// Save writes the population (genomes, fitness state, adaptive threshold and
// offspring counter) to the writer as YAML.
func (p *Population) Save(w io.Writer) error {
	doc := populationDoc{
		CompatThreshold: p.CompatThreshold,
		OffspringCount:  p.OffspringCount,
		Organisms:       make([]organismDoc, 0, len(p.Organisms)),
	}

	for _, o := range p.Organisms {
		doc.Organisms = append(doc.Organisms, organismDoc{
			Fitness:   o.Fitness,
			TimeAlive: o.TimeAlive,
			Smited:    o.Smited,
			Genome:    encodeGenome(o.Genome),
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling population: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}
	return nil
}

// LoadPopulation reads a population saved by Save and rebuilds the species
// partition under the persisted compatibility threshold.
func LoadPopulation(r io.Reader, opts *neat.Options, rng *rand.Rand) (*Population, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading population: %w", err)
	}

	var doc populationDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing population: %w", err)
	}
	if len(doc.Organisms) == 0 {
		return nil, fmt.Errorf("population file holds no organisms")
	}

	p := newPopulation(opts, rng)
	if doc.CompatThreshold > 0 {
		p.CompatThreshold = doc.CompatThreshold
	}
	p.OffspringCount = doc.OffspringCount

	for _, od := range doc.Organisms {
		genome, err := decodeGenome(od.Genome)
		if err != nil {
			return nil, err
		}
		p.idGen.Reserve(genome.Id)
		for _, gene := range genome.Genes {
			p.idGen.ReserveInnovation(gene.InnovationNum)
		}

		org := NewOrganism(genome)
		org.Fitness = od.Fitness
		org.TimeAlive = od.TimeAlive
		org.Smited = od.Smited
		p.Organisms = append(p.Organisms, org)
		p.speciate(org)
	}

	return p, nil
}

func encodeGenome(g *genetics.Genome) genomeDoc {
	doc := genomeDoc{
		ID:    g.Id,
		Nodes: make([]nodeDoc, 0, len(g.Nodes)),
		Genes: make([]geneDoc, 0, len(g.Genes)),
	}

	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, nodeDoc{
			ID:         n.Id,
			Neuron:     int(n.NeuronType),
			Activation: int(n.ActivationType),
		})
	}

	for _, gene := range g.Genes {
		doc.Genes = append(doc.Genes, geneDoc{
			In:        gene.Link.InNode.Id,
			Out:       gene.Link.OutNode.Id,
			Weight:    gene.Link.ConnectionWeight,
			Innov:     gene.InnovationNum,
			MutNum:    gene.MutationNum,
			Enabled:   gene.IsEnabled,
			Recurrent: gene.Link.IsRecurrent,
		})
	}

	return doc
}

func decodeGenome(doc genomeDoc) (*genetics.Genome, error) {
	nodeMap := make(map[int]*network.NNode, len(doc.Nodes))
	nodes := make([]*network.NNode, 0, len(doc.Nodes))

	for _, nd := range doc.Nodes {
		node := network.NewNNode(nd.ID, network.NodeNeuronType(nd.Neuron))
		node.ActivationType = neatmath.NodeActivationType(nd.Activation)
		nodeMap[nd.ID] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, len(doc.Genes))
	for _, gd := range doc.Genes {
		in, out := nodeMap[gd.In], nodeMap[gd.Out]
		if in == nil || out == nil {
			return nil, fmt.Errorf("genome %d: gene references unknown node %d->%d", doc.ID, gd.In, gd.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, gd.Weight, in, out, gd.Recurrent, gd.Innov, gd.MutNum)
		gene.IsEnabled = gd.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(doc.ID, nil, nodes, genes), nil
}

package output

// ParticleSet holds particle records as parallel flat slices. Components are
// written one axis at a time as the synthesis passes complete.
type ParticleSet struct {
	IDs []uint64
	Pos [][3]float64
	Vel [][3]float64
}

// NewParticleSet allocates storage for n particles.
func NewParticleSet(n int) *ParticleSet {
	return &ParticleSet{
		IDs: make([]uint64, n),
		Pos: make([][3]float64, n),
		Vel: make([][3]float64, n),
	}
}

// Len returns the number of particles.
func (p *ParticleSet) Len() int { return len(p.IDs) }

// SetID sets the identifier of particle i.
func (p *ParticleSet) SetID(i int, id uint64) { p.IDs[i] = id }

// SetPos sets the position component of particle i along axis d.
func (p *ParticleSet) SetPos(i, d int, v float64) { p.Pos[i][d] = v }

// SetVel sets the velocity component of particle i along axis d.
func (p *ParticleSet) SetVel(i, d int, v float64) { p.Vel[i][d] = v }

// particleRecord is the CSV row layout of one particle.
type particleRecord struct {
	ID uint64  `csv:"id"`
	X  float64 `csv:"x"`
	Y  float64 `csv:"y"`
	Z  float64 `csv:"z"`
	VX float64 `csv:"vx"`
	VY float64 `csv:"vy"`
	VZ float64 `csv:"vz"`
}

func (p *ParticleSet) records() []particleRecord {
	recs := make([]particleRecord, p.Len())
	for i := range recs {
		recs[i] = particleRecord{
			ID: p.IDs[i],
			X:  p.Pos[i][0], Y: p.Pos[i][1], Z: p.Pos[i][2],
			VX: p.Vel[i][0], VY: p.Vel[i][1], VZ: p.Vel[i][2],
		}
	}
	return recs
}

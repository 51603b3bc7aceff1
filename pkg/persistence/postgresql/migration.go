package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE clinicians (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'doctor',
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_clinicians_active ON clinicians(is_active);

			CREATE TABLE patient_assignments (
				id UUID PRIMARY KEY,
				paciente_id VARCHAR(64) NOT NULL,
				medico_id VARCHAR(64) NOT NULL REFERENCES clinicians(id),
				motivo_consulta TEXT NOT NULL,
				prioridad VARCHAR(20) NOT NULL DEFAULT 'media',
				estado VARCHAR(20) NOT NULL DEFAULT 'pendiente'
					CHECK (estado IN ('pendiente', 'en_proceso', 'completado', 'cancelado')),
				observaciones TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_patient_assignments_medico_estado ON patient_assignments(medico_id, estado);
		`,
		2: `
			CREATE TABLE appointments (
				id VARCHAR(64) PRIMARY KEY,
				paciente_id VARCHAR(64) NOT NULL,
				medico_id VARCHAR(64) REFERENCES clinicians(id),
				fecha_hora TIMESTAMP WITH TIME ZONE NOT NULL,
				estado VARCHAR(20) NOT NULL DEFAULT 'programada'
					CHECK (estado IN ('programada', 'confirmada', 'en_curso', 'completada', 'cancelada', 'no_asistio')),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_appointments_fecha_hora ON appointments(fecha_hora);
			CREATE INDEX idx_appointments_estado ON appointments(estado);

			CREATE TABLE consultations (
				id VARCHAR(64) PRIMARY KEY,
				paciente_id VARCHAR(64) NOT NULL,
				medico_id VARCHAR(64) REFERENCES clinicians(id),
				fecha_hora TIMESTAMP WITH TIME ZONE NOT NULL,
				estado VARCHAR(20) NOT NULL DEFAULT 'en_curso'
					CHECK (estado IN ('en_curso', 'completada', 'cancelada')),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_consultations_fecha_hora ON consultations(fecha_hora);
		`,
	}
}
